package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gearrent/internal/domain"
	"gearrent/internal/repository"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email")
)

// AuthService resuelve usuarios por correo y orquesta el flujo OTP de
// login y signup.
type AuthService struct {
	logger *zap.Logger
	users  repository.UserRepository
	otp    *OTPService
}

func NewAuthService(logger *zap.Logger, users repository.UserRepository, otp *OTPService) *AuthService {
	return &AuthService{
		logger: logger,
		users:  users,
		otp:    otp,
	}
}

// RequestOTP resuelve el usuario y emite un código. En signup el usuario
// se crea si no existe; en login debe existir.
func (s *AuthService) RequestOTP(ctx context.Context, emailAddr, fullName string, purpose domain.OTPPurpose) error {
	user, err := s.resolveUser(ctx, emailAddr, fullName, purpose)
	if err != nil {
		return err
	}
	return s.otp.Issue(ctx, user.ID, user.Email, purpose)
}

// ResendOTP es idéntico a RequestOTP pero pasa por el límite de reenvío.
func (s *AuthService) ResendOTP(ctx context.Context, emailAddr, fullName string, purpose domain.OTPPurpose) error {
	user, err := s.resolveUser(ctx, emailAddr, fullName, purpose)
	if err != nil {
		return err
	}
	return s.otp.Resend(ctx, user.ID, user.Email, purpose)
}

// VerifyOTP consume el código y, en caso de éxito, marca el correo como
// verificado. Un usuario inexistente responde lo mismo que un código
// equivocado para no revelar qué cuentas existen.
func (s *AuthService) VerifyOTP(ctx context.Context, emailAddr, code string, purpose domain.OTPPurpose) (domain.User, error) {
	if s.users == nil || s.otp == nil {
		return domain.User{}, errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrCodeInvalid
		}
		return domain.User{}, err
	}

	if err := s.otp.Verify(ctx, user.ID, code, purpose); err != nil {
		return domain.User{}, err
	}

	if user.EmailVerifiedAt == nil {
		verifiedAt := time.Now().UTC()
		if err := s.users.VerifyEmail(ctx, user.ID, verifiedAt); err != nil {
			return domain.User{}, err
		}
		user.EmailVerifiedAt = &verifiedAt
	}
	return user, nil
}

func (s *AuthService) resolveUser(ctx context.Context, emailAddr, fullName string, purpose domain.OTPPurpose) (domain.User, error) {
	if s.users == nil || s.otp == nil {
		return domain.User{}, errors.New("auth service not configured")
	}

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return domain.User{}, ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, emailAddr)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, err
	}
	if purpose != domain.OTPPurposeSignup {
		return domain.User{}, ErrUserNotFound
	}

	user = domain.User{
		ID:        uuid.NewString(),
		Email:     emailAddr,
		FullName:  strings.TrimSpace(fullName),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
