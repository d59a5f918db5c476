package domain

import (
	"errors"
	"time"
)

// OTPPurpose identifica el flujo que solicitó el código.
type OTPPurpose string

const (
	OTPPurposeLogin  OTPPurpose = "login"
	OTPPurposeSignup OTPPurpose = "signup"
)

var ErrUnknownOTPPurpose = errors.New("unknown otp purpose")

// ParseOTPPurpose valida el valor recibido desde la capa HTTP.
func ParseOTPPurpose(s string) (OTPPurpose, error) {
	switch OTPPurpose(s) {
	case OTPPurposeLogin:
		return OTPPurposeLogin, nil
	case OTPPurposeSignup:
		return OTPPurposeSignup, nil
	default:
		return "", ErrUnknownOTPPurpose
	}
}

// OTPChallenge es un código de verificación de un solo uso.
// is_used pasa de false a true exactamente una vez; la expiración
// se evalúa al momento de leer, nunca con un timer.
type OTPChallenge struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Code      string     `json:"-"`
	Purpose   OTPPurpose `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsUsed    bool       `json:"is_used"`
	CreatedAt time.Time  `json:"created_at"`
}

// Expired indica si el código ya venció respecto a now.
func (c OTPChallenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
