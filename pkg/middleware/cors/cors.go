package cors

import (
	"net/http"
	"strings"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	defaultHeaders = []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"}
	defaultMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}
)

// Options configures the middleware. An empty AllowedOrigins admits every origin.
type Options struct {
	AllowedOrigins []string
	AllowedHeaders []string
	ExposedHeaders []string
	MaxAge         time.Duration
}

// New returns a credentialed CORS middleware. A matching origin is echoed back instead of "*",
// and requests from origins outside the list are refused with 403.
func New(opts Options) gin.HandlerFunc {
	return gincors.New(configFor(opts))
}

func configFor(opts Options) gincors.Config {
	cfg := gincors.Config{
		AllowMethods:     defaultMethods,
		AllowHeaders:     opts.AllowedHeaders,
		ExposeHeaders:    opts.ExposedHeaders,
		AllowCredentials: true,
		MaxAge:           opts.MaxAge,
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = defaultHeaders
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 10 * time.Minute
	}

	for _, origin := range opts.AllowedOrigins {
		if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, origin)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		// AllowAllOrigins would answer "*", which browsers reject for credentialed requests.
		cfg.AllowOriginFunc = func(string) bool { return true }
	}
	return cfg
}
