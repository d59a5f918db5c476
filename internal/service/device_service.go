package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"gearrent/internal/domain"
	"gearrent/internal/repository"
)

var ErrDeviceTokenInvalid = errors.New("device token invalid")

// DeviceService registra y da de baja tokens de push por usuario. El
// estado vive en la base de datos para sobrevivir reinicios y repartirse
// entre instancias.
type DeviceService struct {
	logger  *zap.Logger
	devices repository.DeviceRepository
}

func NewDeviceService(logger *zap.Logger, devices repository.DeviceRepository) *DeviceService {
	return &DeviceService{
		logger:  logger,
		devices: devices,
	}
}

// Register da de alta (o reactiva) un token para el usuario.
func (s *DeviceService) Register(ctx context.Context, userID, token, platform string) error {
	if s.devices == nil {
		return errors.New("device service not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrDeviceTokenInvalid
	}

	return s.devices.Upsert(ctx, domain.DeviceToken{
		UserID:    userID,
		Token:     token,
		Platform:  strings.ToLower(strings.TrimSpace(platform)),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
}

// Unregister desactiva el token; desactivar un token ya inactivo o
// desconocido no es un error.
func (s *DeviceService) Unregister(ctx context.Context, userID, token string) error {
	if s.devices == nil {
		return errors.New("device service not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrDeviceTokenInvalid
	}

	_, err := s.devices.Deactivate(ctx, userID, token, time.Now().UTC())
	return err
}
