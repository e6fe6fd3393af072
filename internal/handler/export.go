package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cleberrangel/delivery-board/internal/logger"
	"github.com/cleberrangel/delivery-board/internal/metrics"
	"github.com/cleberrangel/delivery-board/internal/middleware"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export gera a planilha com todas as entregas filtradas (não só as visíveis)
// @Summary      Exporta entregas
// @Tags         deliveries
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        q query string false "Filtro por cliente"
// @Success      200 {file} binary "Arquivo Excel"
// @Failure      500 {object} model.ErrorResponse
// @Router       /api/v1/deliveries/export [get]
func (h *DeliveryHandler) Export(c *gin.Context) {
	start := time.Now()
	ctx := c.Request.Context()
	term := searchTerm(c)

	list := h.board.Search(term)

	buf, err := h.exporter.Generate(list)
	if err != nil {
		metrics.Get().RecordExport(false)
		logger.Audit(ctx, logger.AuditEvent{
			Action:   logger.AuditActionExport,
			Resource: "deliveries",
			ClientIP: c.ClientIP(),
			Success:  false,
			Error:    err.Error(),
		})
		handleError(c, err)
		return
	}

	metrics.Get().RecordExport(true)
	logger.Audit(ctx, logger.AuditEvent{
		Action:   logger.AuditActionExport,
		Resource: "deliveries",
		ClientIP: c.ClientIP(),
		Success:  true,
		Duration: time.Since(start).Milliseconds(),
		Details: map[string]interface{}{
			"term": term,
			"rows": len(list),
		},
	})

	filename := middleware.SanitizeFilename(
		fmt.Sprintf("entregas_%s.xlsx", time.Now().Format("2006-01-02_15-04-05")))

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("X-Total-Deliveries", fmt.Sprintf("%d", len(list)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
