package router

import (
	"clausewise.app/review/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func ContractRouter(router *gin.RouterGroup, handler *handler.ContractHandler) {
	router.POST("/analyze", handler.Analyze)
	router.POST("/upload", handler.Upload)
	router.GET("/schema", handler.Schema)
}
