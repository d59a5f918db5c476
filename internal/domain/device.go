package domain

import "time"

// DeviceToken es un token de push registrado por un usuario. Se persiste
// con clave (user_id, token) para sobrevivir reinicios y múltiples
// instancias del servicio.
type DeviceToken struct {
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
