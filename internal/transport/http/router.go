package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// NewRouter wires the REST API and the websocket endpoint. A nil metrics
// disables /metrics.
func NewRouter(api *APIHandler, ws *WSHandler, metrics *Metrics, allowedOrigins []string, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	if metrics != nil {
		r.Use(metrics.middleware())
	}

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	if len(allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = allowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/ws", gin.WrapF(ws.ServeWS))
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	authGroup := r.Group("/auth")
	authGroup.POST("/register", api.Register)
	authGroup.POST("/login", api.Login)
	authGroup.GET("/me", requireBearer(api.auth), api.Me)

	apiGroup := r.Group("/api")
	apiGroup.GET("/leaderboard", api.Leaderboard)
	apiGroup.POST("/exam_result", api.ExamResult)
	apiGroup.GET("/history/me", requireBearer(api.auth), api.History)
	apiGroup.GET("/wrongbook/me", requireBearer(api.auth), api.WrongBook)
	return r
}
