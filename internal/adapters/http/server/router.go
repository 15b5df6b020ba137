package server

import (
	"github.com/labstack/echo/v4"
)

// registerRoutes registers all HTTP routes using Echo
func registerRoutes(e *echo.Echo, handler *HandlerAdapter) {
	// Health check
	e.GET("/health", handler.HealthCheck)

	// API v1 group
	v1 := e.Group("/api/v1")

	v1.GET("/assets", handler.GetAssets)
	v1.GET("/transactions", handler.GetTransactions)
	v1.GET("/transactions/active", handler.GetActiveTransactions)
	v1.POST("/transfers", handler.CreateTransfer)
	v1.POST("/allowances", handler.CreateAllowance)
}
