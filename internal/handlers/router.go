package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"amparo/internal/auth"
	"amparo/internal/logging"
	"amparo/internal/middleware"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	// TrustedProxies may set X-Forwarded-For. Empty trusts none.
	TrustedProxies []string
	// Limiter throttles login and registration. Nil disables throttling.
	Limiter *middleware.RateLimiter
}

func recovery(c *gin.Context, rec interface{}) {
	ctx := c.Request.Context()
	logging.Ctx(ctx).Error().Interface("panic", rec).Str("path", c.Request.URL.Path).Msg("panic recovered")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"message":    "Erro interno",
		"request_id": middleware.GetRequestID(ctx),
	})
}

// NewRouter wires the middleware chain and every route. Recovery runs inside the
// access log and metrics so panicking requests are still logged and counted.
func NewRouter(s *Server, opts RouterOptions) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}
	r.Use(middleware.RequestID(), middleware.AccessLog(), middleware.Metrics(), gin.CustomRecovery(recovery))
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost},
			AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
		}))
	}
	r.Use(s.sessions.Middleware())
	r.NoRoute(notFound)

	r.GET("/healthz", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/", staticPage("index"))
	r.GET("/login", staticPage("login"))
	r.GET("/sobre", staticPage("sobre"))
	r.GET("/faq", staticPage("faq"))
	r.GET("/doencas", staticPage("doencas"))
	r.GET("/contato", staticPage("contato"))
	r.GET("/cadastro", staticPage("cadastro"))

	throttled := []gin.HandlerFunc{}
	if opts.Limiter != nil {
		throttled = append(throttled, opts.Limiter.Handler())
	}
	r.POST("/autenticar", append(throttled, s.Authenticate)...)
	r.POST("/cadastro", append(throttled, s.Register)...)

	private := r.Group("/", auth.RequireLogin(denyAnonymous))
	{
		private.GET("/logout", s.Logout)

		private.GET("/doacoes", s.ListOwnRequests)
		private.POST("/doacoes", s.CreateRequest)
		private.GET("/doacoes_disponiveis", s.ListAvailableRequests)
		private.POST("/deletar_pedido/:id", s.DeleteRequest)
		private.GET("/editar_pedido/:id", s.EditRequestView)
		private.POST("/editar_pedido/:id", s.EditRequest)

		private.GET("/perfil", s.profileView("perfil"))
		private.GET("/editar_perfil", s.profileView("editar_perfil"))
		private.POST("/editar_perfil", s.EditProfile)
		private.POST("/deletar_conta", s.DeleteAccount)
	}
	return r, nil
}
