package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the Gin engine with CORS, logging, recovery and the API routes.
func NewRouter(c *RAGController, allowedOrigin string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = c.maxUploadBytes
	router.Use(corsMiddleware(allowedOrigin))

	router.GET("/health", c.Health)
	router.GET("/stats", c.Stats)
	router.POST("/upload", c.UploadPDF)
	router.POST("/ask", c.Ask)
	return router
}

func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
