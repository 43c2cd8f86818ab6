package router

import (
	"clausewise.app/review/internal/http/handler"
	"clausewise.app/review/internal/http/middleware"
	"clausewise.app/review/internal/service"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	MaxUploadBytes int64
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		contractHandler := handler.NewContractHandler(services.Review(), cfg.MaxUploadBytes)
		ContractRouter(v1.Group("/contracts", middleware.BodyLimit(bodyLimit(cfg.MaxUploadBytes))), contractHandler)
	}
}

// bodyLimit leaves room for multipart framing and form fields around the file.
func bodyLimit(maxUploadBytes int64) int64 {
	if maxUploadBytes <= 0 {
		return 0
	}
	return maxUploadBytes + multipartOverhead
}

const multipartOverhead = 64 << 10
