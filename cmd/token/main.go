// Command token signs a customer bearer token with the API's configured
// secret and issuer, for local development and smoke tests.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dejobratic/shop/internal/config"
	httpadapter "github.com/dejobratic/shop/internal/shop/adapters/http"
)

func main() {
	customerID := flag.String("customer", "", "customer ID placed in the token subject")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *customerID == "" {
		slog.Error("missing -customer")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	token, err := httpadapter.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer).Issue(*customerID, *ttl)
	if err != nil {
		slog.Error("failed to issue token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
