package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gearrent/internal/service"
)

// DeviceHandler mantiene dependencias para el registro de dispositivos.
type DeviceHandler struct {
	logger     *zap.Logger
	deviceServ *service.DeviceService
}

// NewDeviceHandler crea una instancia de DeviceHandler con sus dependencias.
func NewDeviceHandler(logger *zap.Logger, deviceServ *service.DeviceService) *DeviceHandler {
	return &DeviceHandler{
		logger:     logger,
		deviceServ: deviceServ,
	}
}

// RegisterDevice maneja POST /devices.
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Token    string `json:"token" binding:"required"`
		Platform string `json:"platform"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid device register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.deviceServ.Register(c.Request.Context(), claims.UserID, req.Token, req.Platform); err != nil {
		if errors.Is(err, service.ErrDeviceTokenInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device token"})
			return
		}
		h.logger.Error("register device failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register device"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "registered"})
}

// UnregisterDevice maneja DELETE /devices/:token.
func (h *DeviceHandler) UnregisterDevice(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	token := c.Param("token")
	if err := h.deviceServ.Unregister(c.Request.Context(), claims.UserID, token); err != nil {
		if errors.Is(err, service.ErrDeviceTokenInvalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid device token"})
			return
		}
		h.logger.Error("unregister device failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unregister device"})
		return
	}

	c.Status(http.StatusNoContent)
}
