package handlers

import (
	"net/http"

	"legalklarity-backend/config"
	"legalklarity-backend/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries everything the router wires together
type RouterConfig struct {
	Analysis    *AnalysisHandler
	Documents   *DocumentHandler
	Chat        *ChatHandler
	Config      *config.Config
	JWTSecret   []byte
	ChatLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

// NewRouter builds the gin engine with all routes
func NewRouter(rc RouterConfig) *gin.Engine {
	logger := rc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(middleware.Recovery(logger), middleware.RequestLogger(logger))

	origins := []string{"*"}
	if rc.Config != nil && len(rc.Config.CORSAllowOrigins) > 0 {
		origins = rc.Config.CORSAllowOrigins
	}
	r.Use(middleware.CORS(origins))

	r.GET("/health", func(c *gin.Context) {
		status := "unknown"
		if rc.Config != nil {
			s, _ := rc.Config.Status()
			status = string(s)
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"config": status,
		})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.Auth(rc.JWTSecret, logger))
	{
		api.POST("/agreements/analyze", rc.Analysis.AnalyzeAgreement)

		api.GET("/documents", rc.Documents.ListDocuments)
		api.GET("/documents/:id", rc.Documents.GetDocument)
		api.GET("/documents/:id/file", rc.Documents.DownloadDocument)
		api.GET("/documents/:id/report", rc.Documents.GetReport)
		api.GET("/documents/:id/risk-assessment", rc.Documents.GetRiskAssessment)
		api.DELETE("/documents/:id", rc.Documents.DeleteDocument)

		chat := []gin.HandlerFunc{rc.Chat.Ask}
		if rc.ChatLimiter != nil {
			chat = append([]gin.HandlerFunc{rc.ChatLimiter.Middleware()}, chat...)
		}
		api.POST("/chat", chat...)
	}

	return r
}
