package service

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"go.uber.org/zap"

	"gearrent/internal/domain"
)

type mockOTPRepo struct {
	challenges   []domain.OTPChallenge
	createErr    error
	consumeErr   error
	cleanupCalls int
}

func (m *mockOTPRepo) Create(_ context.Context, challenge domain.OTPChallenge) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.challenges = append(m.challenges, challenge)
	return nil
}

func (m *mockOTPRepo) Consume(_ context.Context, userID string, purpose domain.OTPPurpose, code string, now time.Time) (bool, error) {
	if m.consumeErr != nil {
		return false, m.consumeErr
	}
	for i, ch := range m.challenges {
		if ch.UserID == userID && ch.Purpose == purpose && ch.Code == code && !ch.IsUsed && now.Before(ch.ExpiresAt) {
			m.challenges[i].IsUsed = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockOTPRepo) DeleteExpiredUnused(_ context.Context, userID string, purpose domain.OTPPurpose, now time.Time) error {
	m.cleanupCalls++
	kept := m.challenges[:0]
	for _, ch := range m.challenges {
		if ch.UserID == userID && ch.Purpose == purpose && !ch.IsUsed && !now.Before(ch.ExpiresAt) {
			continue
		}
		kept = append(kept, ch)
	}
	m.challenges = kept
	return nil
}

func (m *mockOTPRepo) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	var purged int64
	kept := m.challenges[:0]
	for _, ch := range m.challenges {
		if !now.Before(ch.ExpiresAt) {
			purged++
			continue
		}
		kept = append(kept, ch)
	}
	m.challenges = kept
	return purged, nil
}

type mockEmailSender struct {
	lastTo      string
	lastCode    string
	lastPurpose domain.OTPPurpose
	lastExpires time.Time
	calls       int
	err         error
}

func (m *mockEmailSender) SendOTP(_ context.Context, toEmail string, code string, purpose domain.OTPPurpose, expiresAt time.Time) error {
	m.lastTo = toEmail
	m.lastCode = code
	m.lastPurpose = purpose
	m.lastExpires = expiresAt
	m.calls++
	return m.err
}

type mockPushSender struct {
	sentTokens []string
	lastBody   string
	err        error
}

func (m *mockPushSender) Send(_ context.Context, token, _, body string) error {
	m.sentTokens = append(m.sentTokens, token)
	m.lastBody = body
	return m.err
}

func newOTPServiceForTest(otps *mockOTPRepo, devices *mockDeviceRepo, sender *mockEmailSender, pusher *mockPushSender, limiter OTPRateLimiter) *OTPService {
	return NewOTPService(zap.NewNop(), otps, devices, sender, pusher, limiter)
}

func TestGenerateCode_RangeAndFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9]{4}$`)
	for i := 0; i < 500; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatalf("generate code failed: %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("expected 4 digit code, got %q", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("code not numeric: %q", code)
		}
		if n < 1000 || n > 9999 {
			t.Fatalf("code out of range [1000, 9999]: %d", n)
		}
	}
}

func TestOTPServiceIssue_PersistsAndDelivers(t *testing.T) {
	repo := &mockOTPRepo{}
	devices := newMockDeviceRepo()
	devices.add("u1", "tok-1", true)
	devices.add("u1", "tok-2", true)
	devices.add("u1", "tok-3", false)
	sender := &mockEmailSender{}
	pusher := &mockPushSender{}
	svc := newOTPServiceForTest(repo, devices, sender, pusher, nil)

	start := time.Now().UTC()
	if err := svc.Issue(context.Background(), "u1", "user@example.com", domain.OTPPurposeLogin); err != nil {
		t.Fatalf("expected issue success, got %v", err)
	}

	if repo.cleanupCalls != 1 {
		t.Fatalf("expected one cleanup pass before issuing, got %d", repo.cleanupCalls)
	}
	if len(repo.challenges) != 1 {
		t.Fatalf("expected one stored challenge, got %d", len(repo.challenges))
	}
	ch := repo.challenges[0]
	if ch.UserID != "u1" || ch.Purpose != domain.OTPPurposeLogin || ch.IsUsed {
		t.Fatalf("unexpected challenge: %+v", ch)
	}
	if ch.ExpiresAt.Before(start.Add(4*time.Minute)) || ch.ExpiresAt.After(start.Add(6*time.Minute)) {
		t.Fatalf("expected expiry around 5 minutes, got %v", ch.ExpiresAt)
	}
	if sender.lastTo != "user@example.com" || sender.lastCode != ch.Code {
		t.Fatalf("expected email delivery of stored code, got to=%q code=%q", sender.lastTo, sender.lastCode)
	}
	if len(pusher.sentTokens) != 2 {
		t.Fatalf("expected push to the 2 active tokens, got %v", pusher.sentTokens)
	}
}

func TestOTPServiceIssue_DeliveryFailureDoesNotFailIssue(t *testing.T) {
	repo := &mockOTPRepo{}
	sender := &mockEmailSender{err: errors.New("smtp down")}
	pusher := &mockPushSender{err: errors.New("fcm down")}
	devices := newMockDeviceRepo()
	devices.add("u1", "tok-1", true)
	svc := newOTPServiceForTest(repo, devices, sender, pusher, nil)

	if err := svc.Issue(context.Background(), "u1", "user@example.com", domain.OTPPurposeSignup); err != nil {
		t.Fatalf("delivery failures must not fail issue, got %v", err)
	}
	if len(repo.challenges) != 1 {
		t.Fatalf("expected challenge persisted despite delivery failure")
	}

	// El código sigue siendo verificable aunque la entrega haya fallado.
	if err := svc.Verify(context.Background(), "u1", repo.challenges[0].Code, domain.OTPPurposeSignup); err != nil {
		t.Fatalf("expected stored code to verify, got %v", err)
	}
}

func TestOTPServiceIssue_PersistenceErrorPropagates(t *testing.T) {
	repo := &mockOTPRepo{createErr: errors.New("db down")}
	sender := &mockEmailSender{}
	svc := newOTPServiceForTest(repo, newMockDeviceRepo(), sender, &mockPushSender{}, nil)

	if err := svc.Issue(context.Background(), "u1", "user@example.com", domain.OTPPurposeLogin); err == nil {
		t.Fatalf("expected persistence error to propagate")
	}
	if sender.calls != 0 {
		t.Fatalf("expected no delivery when persistence failed")
	}
}

func TestOTPServiceVerify_SucceedsExactlyOnce(t *testing.T) {
	repo := &mockOTPRepo{}
	sender := &mockEmailSender{}
	svc := newOTPServiceForTest(repo, newMockDeviceRepo(), sender, &mockPushSender{}, nil)

	if err := svc.Issue(context.Background(), "u1", "user@example.com", domain.OTPPurposeLogin); err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	code := sender.lastCode

	if err := svc.Verify(context.Background(), "u1", code, domain.OTPPurposeLogin); err != nil {
		t.Fatalf("expected first verify to succeed, got %v", err)
	}
	if err := svc.Verify(context.Background(), "u1", code, domain.OTPPurposeLogin); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected second verify to fail with ErrCodeInvalid, got %v", err)
	}
}

func TestOTPServiceVerify_ExpiredCode(t *testing.T) {
	repo := &mockOTPRepo{}
	repo.challenges = append(repo.challenges, domain.OTPChallenge{
		ID:        "c1",
		UserID:    "u1",
		Code:      "1234",
		Purpose:   domain.OTPPurposeLogin,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
		CreatedAt: time.Now().UTC().Add(-6 * time.Minute),
	})
	svc := newOTPServiceForTest(repo, newMockDeviceRepo(), &mockEmailSender{}, &mockPushSender{}, nil)

	if err := svc.Verify(context.Background(), "u1", "1234", domain.OTPPurposeLogin); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected expired code to fail with ErrCodeInvalid, got %v", err)
	}
}

func TestOTPServiceVerify_PurposeMismatch(t *testing.T) {
	repo := &mockOTPRepo{}
	sender := &mockEmailSender{}
	svc := newOTPServiceForTest(repo, newMockDeviceRepo(), sender, &mockPushSender{}, nil)

	if err := svc.Issue(context.Background(), "u1", "user@example.com", domain.OTPPurposeSignup); err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if err := svc.Verify(context.Background(), "u1", sender.lastCode, domain.OTPPurposeLogin); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected purpose mismatch to fail with ErrCodeInvalid, got %v", err)
	}
	// Con el propósito correcto sigue siendo válido.
	if err := svc.Verify(context.Background(), "u1", sender.lastCode, domain.OTPPurposeSignup); err != nil {
		t.Fatalf("expected verify with matching purpose to succeed, got %v", err)
	}
}

func TestOTPServiceVerify_MalformedCode(t *testing.T) {
	svc := newOTPServiceForTest(&mockOTPRepo{}, newMockDeviceRepo(), &mockEmailSender{}, &mockPushSender{}, nil)

	for _, code := range []string{"", "123", "12345", "12a4", "١٢٣٤"} {
		if err := svc.Verify(context.Background(), "u1", code, domain.OTPPurposeLogin); !errors.Is(err, ErrCodeMalformed) {
			t.Fatalf("expected ErrCodeMalformed for %q, got %v", code, err)
		}
	}
}

func TestOTPServiceIssue_NewCodeDoesNotInvalidatePrevious(t *testing.T) {
	repo := &mockOTPRepo{}
	sender := &mockEmailSender{}
	svc := newOTPServiceForTest(repo, newMockDeviceRepo(), sender, &mockPushSender{}, nil)

	if err := svc.Issue(context.Background(), "u1", "user@example.com", domain.OTPPurposeLogin); err != nil {
		t.Fatalf("first issue failed: %v", err)
	}
	first := sender.lastCode
	if err := svc.Issue(context.Background(), "u1", "user@example.com", domain.OTPPurposeLogin); err != nil {
		t.Fatalf("second issue failed: %v", err)
	}
	second := sender.lastCode

	if len(repo.challenges) != 2 {
		t.Fatalf("expected two independent challenges, got %d", len(repo.challenges))
	}
	if err := svc.Verify(context.Background(), "u1", second, domain.OTPPurposeLogin); err != nil {
		t.Fatalf("expected second code to verify, got %v", err)
	}
	if err := svc.Verify(context.Background(), "u1", first, domain.OTPPurposeLogin); err != nil {
		t.Fatalf("expected first code to stay valid after second was used, got %v", err)
	}
}

func TestOTPServiceResend_RateLimited(t *testing.T) {
	repo := &mockOTPRepo{}
	limiter := NewOTPRateLimiter(time.Minute, 1)
	svc := newOTPServiceForTest(repo, newMockDeviceRepo(), &mockEmailSender{}, &mockPushSender{}, limiter)

	if err := svc.Resend(context.Background(), "u1", "user@example.com", domain.OTPPurposeLogin); err != nil {
		t.Fatalf("first resend should pass, got %v", err)
	}
	if err := svc.Resend(context.Background(), "u1", "user@example.com", domain.OTPPurposeLogin); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited on second resend, got %v", err)
	}
	// El límite es por (usuario, propósito): otro propósito no se ve
	// afectado.
	if err := svc.Resend(context.Background(), "u1", "user@example.com", domain.OTPPurposeSignup); err != nil {
		t.Fatalf("expected different purpose to pass, got %v", err)
	}
}
