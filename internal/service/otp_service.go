package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gearrent/internal/domain"
	"gearrent/internal/email"
	"gearrent/internal/push"
	"gearrent/internal/repository"
)

var (
	ErrCodeMalformed = errors.New("otp code malformed")
	ErrCodeInvalid   = errors.New("otp code invalid or expired")
	ErrRateLimited   = errors.New("rate limited")
)

const (
	otpTTL        = 5 * time.Minute
	otpCodeLength = 4
	// Ventana de reenvío: el contador de 60s que muestra la UI se
	// respalda también en el servidor.
	resendWindow = time.Minute
	resendMax    = 1
)

// OTPService emite, entrega y verifica códigos de un solo uso ligados a
// un usuario y un propósito. La entrega (correo y push) es fire-and-forget:
// una falla se registra pero nunca invalida el código emitido.
type OTPService struct {
	logger      *zap.Logger
	otps        repository.OTPRepository
	devices     repository.DeviceRepository
	emailSender email.Sender
	pushSender  push.Sender
	limiter     OTPRateLimiter
}

func NewOTPService(
	logger *zap.Logger,
	otps repository.OTPRepository,
	devices repository.DeviceRepository,
	emailSender email.Sender,
	pushSender push.Sender,
	limiter OTPRateLimiter,
) *OTPService {
	if limiter == nil {
		limiter = NewOTPRateLimiter(resendWindow, resendMax)
	}
	return &OTPService{
		logger:      logger,
		otps:        otps,
		devices:     devices,
		emailSender: emailSender,
		pushSender:  pushSender,
		limiter:     limiter,
	}
}

// Issue genera un código nuevo, lo persiste con vencimiento a 5 minutos y
// despacha la entrega. Emitir un código nuevo no invalida los anteriores
// sin usar: ambos son verificables hasta vencer o consumirse.
func (s *OTPService) Issue(ctx context.Context, userID, emailAddr string, purpose domain.OTPPurpose) error {
	if s.otps == nil {
		return errors.New("otp service not configured")
	}

	now := time.Now().UTC()

	// Limpieza de códigos vencidos sin usar; es higiene, no corrección,
	// así que una falla no detiene la emisión.
	if err := s.otps.DeleteExpiredUnused(ctx, userID, purpose, now); err != nil && s.logger != nil {
		s.logger.Warn("otp cleanup failed", zap.Error(err), zap.String("user_id", userID))
	}

	code, err := generateCode()
	if err != nil {
		return err
	}

	challenge := domain.OTPChallenge{
		ID:        uuid.NewString(),
		UserID:    userID,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: now.Add(otpTTL),
		IsUsed:    false,
		CreatedAt: now,
	}
	if err := s.otps.Create(ctx, challenge); err != nil {
		return err
	}

	s.deliver(ctx, userID, emailAddr, code, purpose, challenge.ExpiresAt)
	return nil
}

// Resend emite un código nuevo aplicando el límite de reenvío por
// (userID, purpose).
func (s *OTPService) Resend(ctx context.Context, userID, emailAddr string, purpose domain.OTPPurpose) error {
	if s.limiter != nil && !s.limiter.Allow(userID+":"+string(purpose)) {
		return ErrRateLimited
	}
	return s.Issue(ctx, userID, emailAddr, purpose)
}

// Verify consume un código vigente. Todas las fallas de búsqueda (código
// equivocado, vencido, ya usado o nunca emitido) colapsan en
// ErrCodeInvalid para no filtrar cuál fue el caso.
func (s *OTPService) Verify(ctx context.Context, userID, code string, purpose domain.OTPPurpose) error {
	if s.otps == nil {
		return errors.New("otp service not configured")
	}
	if !isValidCode(code) {
		return ErrCodeMalformed
	}

	ok, err := s.otps.Consume(ctx, userID, purpose, code, time.Now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return ErrCodeInvalid
	}
	return nil
}

func (s *OTPService) deliver(ctx context.Context, userID, emailAddr, code string, purpose domain.OTPPurpose, expiresAt time.Time) {
	if s.emailSender != nil && emailAddr != "" {
		if err := s.emailSender.SendOTP(ctx, emailAddr, code, purpose, expiresAt); err != nil && s.logger != nil {
			s.logger.Warn("otp email delivery failed", zap.Error(err), zap.String("user_id", userID))
		}
	}

	if s.pushSender == nil || s.devices == nil {
		return
	}
	tokens, err := s.devices.ActiveTokens(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("otp push token lookup failed", zap.Error(err), zap.String("user_id", userID))
		}
		return
	}
	body := fmt.Sprintf("Your verification code is %s", code)
	for _, token := range tokens {
		if err := s.pushSender.Send(ctx, token, "Verification code", body); err != nil && s.logger != nil {
			s.logger.Warn("otp push delivery failed", zap.Error(err), zap.String("user_id", userID))
		}
	}
}

// generateCode produce un código de 4 dígitos uniforme en [1000, 9999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}

func isValidCode(code string) bool {
	if len(code) != otpCodeLength {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// OTPRateLimiter limita la frecuencia de solicitudes de OTP por clave.
type OTPRateLimiter interface {
	Allow(key string) bool
}

type otpRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewOTPRateLimiter crea un rate limiter en memoria.
func NewOTPRateLimiter(window time.Duration, max int) OTPRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &otpRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *otpRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}
