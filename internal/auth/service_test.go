package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/worldtek/canteen-backend/pkg/auth"
	"github.com/worldtek/canteen-backend/pkg/config"
	"github.com/worldtek/canteen-backend/pkg/db/models"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
)

type stubUserStore struct {
	byMobile map[string]*models.User
}

func newStubUserStore() *stubUserStore {
	return &stubUserStore{byMobile: map[string]*models.User{}}
}

func (s *stubUserStore) FindByMobile(_ context.Context, mobile string) (*models.User, error) {
	user, ok := s.byMobile[mobile]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range s.byMobile {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.byMobile[user.Mobile] = user
	return user, nil
}

type stubOTPStore struct {
	values map[string]string
}

func newStubOTPStore() *stubOTPStore {
	return &stubOTPStore{values: map[string]string{}}
}

func (s *stubOTPStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.values[key] = value.(string)
	return nil
}

func (s *stubOTPStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", gorm.ErrRecordNotFound
	}
	return value, nil
}

func (s *stubOTPStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.values, key)
	}
	return nil
}

func (s *stubOTPStore) OTPKey(mobile string) string { return "canteen:otp:" + mobile }

type recordingSender struct {
	mobile  string
	message string
}

func (s *recordingSender) Send(_ context.Context, mobile, message, _ string) error {
	s.mobile = mobile
	s.message = message
	return nil
}

func testConfigs() (config.OTPConfig, config.JWTConfig) {
	otpCfg := config.OTPConfig{
		TTL:          time.Minute,
		Length:       6,
		ArgonMemory:  8 * 1024,
		ArgonTime:    1,
		ArgonThreads: 1,
		ArgonSaltLen: 16,
		ArgonKeyLen:  32,
	}
	jwtCfg := config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "canteen-test",
		ExpirationMinutes: 30,
	}
	return otpCfg, jwtCfg
}

// extractCode pulls the numeric code out of the delivered SMS text.
func extractCode(t *testing.T, message string) string {
	t.Helper()
	for _, field := range strings.Fields(message) {
		trimmed := strings.TrimSuffix(field, ".")
		if len(trimmed) == 6 && strings.Trim(trimmed, "0123456789") == "" {
			return trimmed
		}
	}
	t.Fatalf("no code found in %q", message)
	return ""
}

func TestRequestOTPRegistersUnknownMobile(t *testing.T) {
	users := newStubUserStore()
	store := newStubOTPStore()
	sender := &recordingSender{}
	otpCfg, jwtCfg := testConfigs()

	svc, err := NewService(users, store, sender, otpCfg, jwtCfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.RequestOTP(context.Background(), RequestOTPInput{Mobile: "+919876543210", FirstName: "Asha"}); err != nil {
		t.Fatalf("request otp: %v", err)
	}

	user, ok := users.byMobile["919876543210"]
	if !ok {
		t.Fatal("expected user to be registered")
	}
	if user.FirstName != "Asha" {
		t.Fatalf("unexpected name %q", user.FirstName)
	}
	if sender.mobile != "919876543210" {
		t.Fatalf("expected sms to normalized mobile, got %q", sender.mobile)
	}
	if _, ok := store.values[store.OTPKey("919876543210")]; !ok {
		t.Fatal("expected otp hash in store")
	}
}

func TestRequestOTPRejectsBadMobile(t *testing.T) {
	otpCfg, jwtCfg := testConfigs()
	svc, _ := NewService(newStubUserStore(), newStubOTPStore(), nil, otpCfg, jwtCfg)

	for _, bad := range []string{"", "12345", "not-a-number", "12345678901234567890"} {
		err := svc.RequestOTP(context.Background(), RequestOTPInput{Mobile: bad})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %q, got %v", bad, err)
		}
	}
}

func TestVerifyOTPFullFlow(t *testing.T) {
	users := newStubUserStore()
	store := newStubOTPStore()
	sender := &recordingSender{}
	otpCfg, jwtCfg := testConfigs()
	svc, _ := NewService(users, store, sender, otpCfg, jwtCfg)

	if err := svc.RequestOTP(context.Background(), RequestOTPInput{Mobile: "919876543210", FirstName: "Asha"}); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	code := extractCode(t, sender.message)

	result, err := svc.VerifyOTP(context.Background(), "919876543210", code)
	if err != nil {
		t.Fatalf("verify otp: %v", err)
	}
	if result.AccessToken == "" {
		t.Fatal("expected an access token")
	}
	if result.User.Mobile != "919876543210" {
		t.Fatalf("unexpected user %+v", result.User)
	}

	claims, err := pkgauth.ParseAccessToken(jwtCfg, result.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != result.User.ID {
		t.Fatal("token subject does not match user")
	}

	// Codes are single-use.
	if _, err := svc.VerifyOTP(context.Background(), "919876543210", code); err == nil {
		t.Fatal("expected second verification to fail")
	}
}

func TestVerifyOTPWrongCode(t *testing.T) {
	users := newStubUserStore()
	store := newStubOTPStore()
	sender := &recordingSender{}
	otpCfg, jwtCfg := testConfigs()
	svc, _ := NewService(users, store, sender, otpCfg, jwtCfg)

	if err := svc.RequestOTP(context.Background(), RequestOTPInput{Mobile: "919876543210"}); err != nil {
		t.Fatalf("request otp: %v", err)
	}

	_, err := svc.VerifyOTP(context.Background(), "919876543210", "000000")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyOTPWithoutRequest(t *testing.T) {
	otpCfg, jwtCfg := testConfigs()
	svc, _ := NewService(newStubUserStore(), newStubOTPStore(), nil, otpCfg, jwtCfg)

	_, err := svc.VerifyOTP(context.Background(), "919876543210", "123456")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestResendOTPRequiresRegisteredMobile(t *testing.T) {
	users := newStubUserStore()
	store := newStubOTPStore()
	sender := &recordingSender{}
	otpCfg, jwtCfg := testConfigs()
	svc, _ := NewService(users, store, sender, otpCfg, jwtCfg)

	err := svc.ResendOTP(context.Background(), "919876543210")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}

	if err := svc.RequestOTP(context.Background(), RequestOTPInput{Mobile: "919876543210"}); err != nil {
		t.Fatalf("request otp: %v", err)
	}
	if err := svc.ResendOTP(context.Background(), "919876543210"); err != nil {
		t.Fatalf("resend: %v", err)
	}
}
