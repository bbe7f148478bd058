// Package httpapi serves the REST API consumed by the mobile client.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/mmynk/dormmess/internal/metrics"
	"github.com/mmynk/dormmess/internal/service"
)

// Deps are the services the API is built on.
type Deps struct {
	Auth        *service.AuthService
	Ledger      *service.LedgerService
	Menu        *service.MenuService
	Aggregation *service.AggregationService

	// Health reports whether the database is reachable.
	Health func(ctx context.Context) error

	// Metrics may be nil.
	Metrics *metrics.Metrics
}

// Options tune the router's middleware.
type Options struct {
	// AuthRequired protects every /api route except register and login.
	AuthRequired bool

	// RateLimitRPS and RateLimitBurst configure the global token bucket.
	// A non-positive RateLimitRPS disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int

	AllowedOrigins []string
}

type handlers struct {
	auth        *service.AuthService
	ledger      *service.LedgerService
	menu        *service.MenuService
	aggregation *service.AggregationService
	health      func(ctx context.Context) error
}

// NewRouter builds the gin engine with every route and middleware.
func NewRouter(d Deps, o Options) *gin.Engine {
	h := &handlers{
		auth:        d.Auth,
		ledger:      d.Ledger,
		menu:        d.Menu,
		aggregation: d.Aggregation,
		health:      d.Health,
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), observe(d.Metrics), cors(o.AllowedOrigins))
	if o.RateLimitRPS > 0 {
		burst := o.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		r.Use(rateLimit(rate.NewLimiter(rate.Limit(o.RateLimitRPS), burst)))
	}

	r.GET("/healthz", h.healthz)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Kept at the root for clients of the first API version.
	r.POST("/register", h.register)

	api := r.Group("/api")
	api.POST("/register", h.register)
	api.POST("/login", h.login)

	protected := api.Group("")
	if o.AuthRequired {
		protected.Use(requireAuth(d.Auth))
	}
	{
		protected.GET("/users", h.listUsers)
		protected.GET("/users/:id", h.getUser)
		protected.GET("/personal_info/:id", h.personalInfo)

		protected.GET("/meal", h.listMeals)
		protected.POST("/meal", h.createMeal)
		protected.GET("/meal/:id", h.getMeal)
		protected.PUT("/meal/:id", h.updateMeal)
		protected.DELETE("/meal/:id", h.deleteMeal)

		protected.GET("/spend", h.listSpends)
		protected.POST("/spend", h.createSpend)
		protected.GET("/spend/:id", h.getSpend)
		protected.PUT("/spend/:id", h.updateSpend)
		protected.DELETE("/spend/:id", h.deleteSpend)

		protected.GET("/deposit", h.listDeposits)
		protected.POST("/deposit", h.createDeposit)
		protected.GET("/deposit/:id", h.getDeposit)
		protected.PUT("/deposit/:id", h.updateDeposit)
		protected.DELETE("/deposit/:id", h.deleteDeposit)

		protected.GET("/meals", h.listMenuItems)
		protected.POST("/meals", h.createMenuItem)
		protected.GET("/meals/:id", h.getMenuItem)
		protected.PUT("/meals/:id", h.updateMenuItem)
		protected.DELETE("/meals/:id", h.deleteMenuItem)

		protected.GET("/meal_rate", h.listMealRates)
		protected.GET("/meal_rate/:user_id", h.getMealRate)
		protected.POST("/meal_rate", h.recomputeMealRates)

		protected.GET("/overall_calculation", h.listOverall)
		protected.GET("/overall_calculation/:user_id", h.getOverall)
		protected.POST("/overall_calculation", h.recomputeOverall)

		protected.POST("/recompute", h.recompute)
		protected.GET("/summary", h.summary)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Route not found"})
	})
	return r
}

func (h *handlers) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
