package handler

import (
	"errors"
	"net/http"

	"github.com/cleberrangel/delivery-board/internal/logger"
	"github.com/cleberrangel/delivery-board/internal/middleware"
	"github.com/cleberrangel/delivery-board/internal/model"
	"github.com/cleberrangel/delivery-board/internal/service"
	"github.com/cleberrangel/delivery-board/internal/view"
	"github.com/gin-gonic/gin"
)

// DeliveryHandler serve a lista de entregas em HTML e JSON
type DeliveryHandler struct {
	board    *service.Board
	exporter *service.ExcelExporter
}

// NewDeliveryHandler cria um novo handler de entregas
func NewDeliveryHandler(board *service.Board, exporter *service.ExcelExporter) *DeliveryHandler {
	return &DeliveryHandler{
		board:    board,
		exporter: exporter,
	}
}

func searchTerm(c *gin.Context) string {
	return middleware.SanitizeSearch(c.Query("q"))
}

// Page renderiza a página de entregas
// @Summary      Lista de entregas (HTML)
// @Tags         deliveries
// @Produce      html
// @Param        q query string false "Filtro por cliente"
// @Router       /deliveries [get]
func (h *DeliveryHandler) Page(c *gin.Context) {
	page := h.board.Page(searchTerm(c))
	c.HTML(http.StatusOK, view.DeliveriesPage, view.NewPageData(page))
}

// List devolve a fatia visível da lista filtrada
// @Summary      Lista de entregas (JSON)
// @Tags         deliveries
// @Produce      json
// @Param        q query string false "Filtro por cliente"
// @Success      200 {object} model.Response
// @Router       /api/v1/deliveries [get]
func (h *DeliveryHandler) List(c *gin.Context) {
	page := h.board.Page(searchTerm(c))

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    page,
		Meta: &model.Meta{
			TotalDeliveries: page.Total,
			Visible:         len(page.Cards),
		},
	})
}

// Refresh dispara a reconstrução da lista
// @Summary      Recarrega o feed
// @Tags         deliveries
// @Produce      json
// @Success      202 {object} model.Response
// @Failure      503 {object} model.ErrorResponse
// @Router       /api/v1/deliveries/refresh [post]
func (h *DeliveryHandler) Refresh(c *gin.Context) {
	if err := h.board.Reload(c.Request.Context()); err != nil {
		handleError(c, err)
		return
	}

	logger.FromGin(c).Info().Msg("Recarga da lista solicitada")
	c.JSON(http.StatusAccepted, model.Response{Success: true})
}

// handleError trata erros e retorna resposta apropriada
func handleError(c *gin.Context, err error) {
	logger.FromGin(c).Error().Err(err).Msg("Erro na requisição")

	switch {
	case errors.Is(err, model.ErrBoardClosed):
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Success: false,
			Error:   "serviço encerrando",
			Details: err.Error(),
		})
	case errors.Is(err, model.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, model.ErrorResponse{
			Success: false,
			Error:   "rate limit excedido",
			Details: "aguarde alguns segundos e tente novamente",
		})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusBadGateway, model.ErrorResponse{
			Success: false,
			Error:   "feed de entregas não encontrado",
			Details: "verifique a variável DELIVERIES_URL",
		})
	case errors.Is(err, model.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, model.ErrorResponse{
			Success: false,
			Error:   "timeout na requisição",
			Details: "o feed de entregas demorou muito para responder",
		})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Error:   "erro interno",
			Details: err.Error(),
		})
	}
}
