package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gearrent/internal/service"
)

// QuoteHandler mantiene dependencias para la cotización de rentas.
type QuoteHandler struct {
	logger    *zap.Logger
	quoteServ *service.QuoteService
}

// NewQuoteHandler crea una instancia de QuoteHandler con sus dependencias.
func NewQuoteHandler(logger *zap.Logger, quoteServ *service.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		logger:    logger,
		quoteServ: quoteServ,
	}
}

// QuoteRental maneja POST /rentals/quote.
func (h *QuoteHandler) QuoteRental(c *gin.Context) {
	var req struct {
		ProductID string    `json:"product_id" binding:"required"`
		Start     time.Time `json:"start" binding:"required"`
		End       time.Time `json:"end" binding:"required"`
		Quantity  int64     `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid quote request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	quote, err := h.quoteServ.QuoteProduct(c.Request.Context(), req.ProductID, req.Start, req.End, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be after start"})
			return
		case errors.Is(err, service.ErrInvalidQuantity):
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be at least 1"})
			return
		case errors.Is(err, service.ErrProductNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		case errors.Is(err, service.ErrUnpriceable):
			// Nunca se responde con total cero: el checkout debe
			// bloquearse con un mensaje concreto.
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "rental duration not supported for this product"})
			return
		default:
			h.logger.Error("quote rental failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not quote rental"})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}
