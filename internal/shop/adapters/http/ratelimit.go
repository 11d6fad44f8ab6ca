package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

const defaultIdleTTL = 3 * time.Minute

// RateLimiter keeps one token bucket per authenticated customer.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	now     func() time.Time

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time

	rejected *prometheus.CounterVec
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter returns a limiter allowing rps requests per second with the
// given burst. A non-positive rps disables limiting. Rejections are counted
// on reg when it is not nil.
func NewRateLimiter(rps float64, burst int, reg prometheus.Registerer) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  defaultIdleTTL,
		now:      time.Now,
		visitors: make(map[string]*visitor),
		rejected: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "shop_rate_limited_requests_total",
			Help: "Requests rejected by the per-customer rate limiter.",
		}, []string{"route"}),
	}
}

func (rl *RateLimiter) enabled() bool {
	return rl != nil && rl.limit > 0
}

// Allow reports whether the customer may issue another request now.
func (rl *RateLimiter) Allow(customerID string) bool {
	if !rl.enabled() {
		return true
	}
	return rl.visitor(customerID).AllowN(rl.now(), 1)
}

func (rl *RateLimiter) visitor(customerID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.sweep(now)

	v, ok := rl.visitors[customerID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[customerID] = v
	}
	v.lastSeen = now
	return v.limiter
}

// sweep drops idle visitors at most once per idle period. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idleTTL {
		return
	}
	rl.lastSweep = now
	for id, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idleTTL {
			delete(rl.visitors, id)
		}
	}
}

func (rl *RateLimiter) tracked() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Limit wraps handlers that run after Authenticator.Require.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	if !rl.enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		customerID, _ := CustomerID(r.Context())
		if !rl.Allow(customerID) {
			rl.rejected.WithLabelValues(r.Pattern).Inc()
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(rl.limit)))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func retryAfterSeconds(limit rate.Limit) int {
	seconds := int(1 / float64(limit))
	if seconds < 1 {
		return 1
	}
	return seconds
}
