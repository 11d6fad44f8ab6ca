package memory

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dejobratic/shop/internal/shop/domain"
)

// seedFile is the YAML fixture format accepted by LoadSeed.
type seedFile struct {
	Pricing  *seedPricing  `yaml:"pricing"`
	Products []seedProduct `yaml:"products"`
	Sales    []seedSale    `yaml:"sales"`
}

type seedPricing struct {
	StandardCost string `yaml:"standardCost"`
	ExpressCost  string `yaml:"expressCost"`
	FreeMinimum  string `yaml:"freeMinimum"`
}

type seedProduct struct {
	ID           int64     `yaml:"id"`
	Category     int64     `yaml:"category"`
	Title        string    `yaml:"title"`
	Description  string    `yaml:"description"`
	Price        string    `yaml:"price"`
	Count        int       `yaml:"count"`
	FreeDelivery bool      `yaml:"freeDelivery"`
	Tags         []string  `yaml:"tags"`
	Date         time.Time `yaml:"date"`
	Rates        []int     `yaml:"rates"`
}

type seedSale struct {
	Product  int64     `yaml:"product"`
	Discount string    `yaml:"discount"`
	DateFrom time.Time `yaml:"dateFrom"`
	DateTo   time.Time `yaml:"dateTo"`
}

// LoadSeedFile reads a YAML fixture from path into the store.
func (s *Store) LoadSeedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	return s.LoadSeed(f)
}

// LoadSeed decodes a YAML fixture and inserts its pricing, products and sales.
func (s *Store) LoadSeed(r io.Reader) error {
	var seed seedFile
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil {
		return fmt.Errorf("decode seed: %w", err)
	}

	if seed.Pricing != nil {
		pricing, err := seed.Pricing.toDomain()
		if err != nil {
			return err
		}
		s.SetPricing(pricing)
	}

	for _, sp := range seed.Products {
		price, err := parseMoney("price", sp.Price)
		if err != nil {
			return fmt.Errorf("product %d: %w", sp.ID, err)
		}
		if sp.Count < 0 {
			return fmt.Errorf("product %d: count must not be negative", sp.ID)
		}
		s.PutProduct(domain.Product{
			ID:           sp.ID,
			CategoryID:   sp.Category,
			Title:        sp.Title,
			Description:  sp.Description,
			Price:        price,
			Count:        sp.Count,
			FreeDelivery: sp.FreeDelivery,
			Tags:         sp.Tags,
			CreatedAt:    sp.Date,
		})
		for _, rate := range sp.Rates {
			s.AddReview(sp.ID, rate)
		}
	}

	for _, ss := range seed.Sales {
		discount, err := parseMoney("discount", ss.Discount)
		if err != nil {
			return fmt.Errorf("sale for product %d: %w", ss.Product, err)
		}
		s.PutSale(ss.Product, ss.DateFrom, ss.DateTo, discount)
	}

	return nil
}

func (p seedPricing) toDomain() (domain.DeliveryPricing, error) {
	standard, err := parseMoney("standardCost", p.StandardCost)
	if err != nil {
		return domain.DeliveryPricing{}, err
	}
	express, err := parseMoney("expressCost", p.ExpressCost)
	if err != nil {
		return domain.DeliveryPricing{}, err
	}
	minimum, err := parseMoney("freeMinimum", p.FreeMinimum)
	if err != nil {
		return domain.DeliveryPricing{}, err
	}
	return domain.DeliveryPricing{StandardCost: standard, ExpressCost: express, FreeMinimum: minimum}, nil
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", field, value, err)
	}
	return d, nil
}
