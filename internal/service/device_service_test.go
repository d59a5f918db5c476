package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"gearrent/internal/domain"
)

type mockDeviceRepo struct {
	devices map[string]domain.DeviceToken
	err     error
}

func newMockDeviceRepo() *mockDeviceRepo {
	return &mockDeviceRepo{devices: make(map[string]domain.DeviceToken)}
}

func deviceKey(userID, token string) string {
	return userID + "|" + token
}

func (m *mockDeviceRepo) add(userID, token string, active bool) {
	m.devices[deviceKey(userID, token)] = domain.DeviceToken{
		UserID:    userID,
		Token:     token,
		IsActive:  active,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func (m *mockDeviceRepo) Upsert(_ context.Context, device domain.DeviceToken) error {
	if m.err != nil {
		return m.err
	}
	device.IsActive = true
	m.devices[deviceKey(device.UserID, device.Token)] = device
	return nil
}

func (m *mockDeviceRepo) Deactivate(_ context.Context, userID, token string, at time.Time) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	device, ok := m.devices[deviceKey(userID, token)]
	if !ok || !device.IsActive {
		return false, nil
	}
	device.IsActive = false
	device.UpdatedAt = at
	m.devices[deviceKey(userID, token)] = device
	return true, nil
}

func (m *mockDeviceRepo) ActiveTokens(_ context.Context, userID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	var tokens []string
	for _, device := range m.devices {
		if device.UserID == userID && device.IsActive {
			tokens = append(tokens, device.Token)
		}
	}
	return tokens, nil
}

func (m *mockDeviceRepo) PurgeInactive(_ context.Context, olderThan time.Time) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	var purged int64
	for key, device := range m.devices {
		if !device.IsActive && device.UpdatedAt.Before(olderThan) {
			delete(m.devices, key)
			purged++
		}
	}
	return purged, nil
}

func TestDeviceServiceRegister_UpsertsActiveToken(t *testing.T) {
	repo := newMockDeviceRepo()
	svc := NewDeviceService(zap.NewNop(), repo)

	if err := svc.Register(context.Background(), "u1", " tok-1 ", "Android"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	device, ok := repo.devices[deviceKey("u1", "tok-1")]
	if !ok {
		t.Fatalf("expected token stored with trimmed key")
	}
	if !device.IsActive || device.Platform != "android" {
		t.Fatalf("unexpected stored device: %+v", device)
	}
}

func TestDeviceServiceRegister_ReactivatesToken(t *testing.T) {
	repo := newMockDeviceRepo()
	repo.add("u1", "tok-1", false)
	svc := NewDeviceService(zap.NewNop(), repo)

	if err := svc.Register(context.Background(), "u1", "tok-1", "ios"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	tokens, err := repo.ActiveTokens(context.Background(), "u1")
	if err != nil || len(tokens) != 1 {
		t.Fatalf("expected token reactivated, got %v, %v", tokens, err)
	}
}

func TestDeviceServiceRegister_EmptyToken(t *testing.T) {
	svc := NewDeviceService(zap.NewNop(), newMockDeviceRepo())
	if err := svc.Register(context.Background(), "u1", "   ", "ios"); err != ErrDeviceTokenInvalid {
		t.Fatalf("expected ErrDeviceTokenInvalid, got %v", err)
	}
}

func TestDeviceServiceUnregister_UnknownTokenIsNoError(t *testing.T) {
	repo := newMockDeviceRepo()
	repo.add("u1", "tok-1", true)
	svc := NewDeviceService(zap.NewNop(), repo)

	if err := svc.Unregister(context.Background(), "u1", "tok-unknown"); err != nil {
		t.Fatalf("unregistering unknown token must not fail, got %v", err)
	}
	if err := svc.Unregister(context.Background(), "u1", "tok-1"); err != nil {
		t.Fatalf("unregister failed: %v", err)
	}
	tokens, err := repo.ActiveTokens(context.Background(), "u1")
	if err != nil || len(tokens) != 0 {
		t.Fatalf("expected no active tokens, got %v, %v", tokens, err)
	}
}
