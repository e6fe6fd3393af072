package handler

import (
	"github.com/cleberrangel/delivery-board/internal/metrics"
	"github.com/cleberrangel/delivery-board/internal/middleware"
	"github.com/cleberrangel/delivery-board/internal/service"
	"github.com/cleberrangel/delivery-board/internal/view"
	"github.com/cleberrangel/delivery-board/internal/websocket"
	"github.com/gin-gonic/gin"
)

// Deps agrupa as dependências das rotas
type Deps struct {
	Board    *service.Board
	Exporter *service.ExcelExporter
	Hub      *websocket.Hub
	Version  string
}

// NewRouter monta o router com middlewares e rotas
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID()) // Request ID + logging estruturado
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())

	r.SetHTMLTemplate(view.Templates())

	deliveries := NewDeliveryHandler(deps.Board, deps.Exporter)
	health := NewHealthHandler(deps.Board, deps.Hub, deps.Version)

	// Página
	r.GET("/", deliveries.Page)
	r.GET("/deliveries", deliveries.Page)

	// API
	api := r.Group("/api/v1")
	{
		api.GET("/deliveries", deliveries.List)
		api.GET("/deliveries/export", deliveries.Export)
		api.POST("/deliveries/refresh", deliveries.Refresh)
	}

	// Atualizações ao vivo
	if deps.Hub != nil {
		ws := NewWebSocketHandler(deps.Hub)
		r.GET("/ws", ws.HandleConnection)
		r.GET("/ws/stats", ws.GetConnectionStats)
	}

	// Health e métricas
	r.GET("/health", health.DetailedHealthCheck)
	r.GET("/health/live", health.LivenessCheck)
	r.GET("/health/ready", health.ReadinessCheck)
	r.GET("/metrics", health.GetMetrics)
	r.GET("/metrics/endpoints", health.GetEndpointMetrics)
	r.GET("/metrics/prometheus", gin.WrapH(metrics.Handler()))

	return r
}
