package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"gearrent/internal/repository"
)

// Retención de tokens desactivados antes de borrarlos definitivamente.
const inactiveDeviceRetention = 90 * 24 * time.Hour

// Cleaner borra periódicamente códigos OTP vencidos y tokens de
// dispositivo inactivos. Es higiene de datos: la expiración se evalúa
// al verificar, así que un fallo aquí no afecta la corrección.
type Cleaner struct {
	logger  *zap.Logger
	otps    repository.OTPRepository
	devices repository.DeviceRepository
	cron    *cron.Cron
}

func NewCleaner(logger *zap.Logger, otps repository.OTPRepository, devices repository.DeviceRepository) *Cleaner {
	return &Cleaner{
		logger:  logger,
		otps:    otps,
		devices: devices,
		cron:    cron.New(),
	}
}

// Start registra el job con el spec dado y arranca el cron en segundo
// plano.
func (c *Cleaner) Start(spec string) error {
	if _, err := c.cron.AddFunc(spec, c.runOnce); err != nil {
		return err
	}
	c.cron.Start()
	return nil
}

// Stop detiene el cron y espera a que termine el job en curso.
func (c *Cleaner) Stop() {
	<-c.cron.Stop().Done()
}

func (c *Cleaner) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now().UTC()

	if c.otps != nil {
		purged, err := c.otps.PurgeExpired(ctx, now)
		if err != nil {
			c.logger.Warn("otp purge failed", zap.Error(err))
		} else if purged > 0 {
			c.logger.Info("expired otp challenges purged", zap.Int64("count", purged))
		}
	}

	if c.devices != nil {
		purged, err := c.devices.PurgeInactive(ctx, now.Add(-inactiveDeviceRetention))
		if err != nil {
			c.logger.Warn("device token purge failed", zap.Error(err))
		} else if purged > 0 {
			c.logger.Info("stale device tokens purged", zap.Int64("count", purged))
		}
	}
}
