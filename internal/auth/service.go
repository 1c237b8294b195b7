package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/worldtek/canteen-backend/pkg/auth"
	"github.com/worldtek/canteen-backend/pkg/config"
	"github.com/worldtek/canteen-backend/pkg/db/models"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/security"
)

var mobilePattern = regexp.MustCompile(`^[0-9]{10,15}$`)

type userStore interface {
	FindByMobile(ctx context.Context, mobile string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

type otpStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	OTPKey(mobile string) string
}

type otpSender interface {
	Send(ctx context.Context, mobile, message, templateID string) error
}

// Service drives the OTP login flow: request a code over SMS, verify it,
// receive an access token.
type Service interface {
	RequestOTP(ctx context.Context, input RequestOTPInput) error
	VerifyOTP(ctx context.Context, mobile, code string) (*VerifyResult, error)
	ResendOTP(ctx context.Context, mobile string) error
}

// RequestOTPInput starts a login. Unknown mobiles are registered on the fly.
type RequestOTPInput struct {
	Mobile    string
	FirstName string
	LastName  *string
}

// VerifyResult carries the minted token and the authenticated user.
type VerifyResult struct {
	AccessToken string       `json:"access_token"`
	User        *models.User `json:"user"`
}

type service struct {
	users  userStore
	store  otpStore
	sender otpSender
	otpCfg config.OTPConfig
	jwtCfg config.JWTConfig
	now    func() time.Time
}

// NewService wires the OTP auth service. The SMS sender may be nil in dev;
// codes are then only stored, never delivered.
func NewService(users userStore, store otpStore, sender otpSender, otpCfg config.OTPConfig, jwtCfg config.JWTConfig) (Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store required")
	}
	if store == nil {
		return nil, fmt.Errorf("otp store required")
	}
	if strings.TrimSpace(jwtCfg.Secret) == "" {
		return nil, fmt.Errorf("jwt secret required")
	}
	return &service{
		users:  users,
		store:  store,
		sender: sender,
		otpCfg: otpCfg,
		jwtCfg: jwtCfg,
		now:    time.Now,
	}, nil
}

// RequestOTP upserts the user for the mobile number, stores a hashed
// one-time code in redis and fires the SMS.
func (s *service) RequestOTP(ctx context.Context, input RequestOTPInput) error {
	mobile, err := normalizeMobile(input.Mobile)
	if err != nil {
		return err
	}

	if _, err := s.users.FindByMobile(ctx, mobile); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
		}
		firstName := strings.TrimSpace(input.FirstName)
		if firstName == "" {
			firstName = "Guest"
		}
		if _, err := s.users.Create(ctx, &models.User{
			FirstName: firstName,
			LastName:  input.LastName,
			Mobile:    mobile,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register user")
		}
	}

	return s.issueOTP(ctx, mobile)
}

// ResendOTP issues a fresh code for an already-registered mobile.
func (s *service) ResendOTP(ctx context.Context, mobile string) error {
	normalized, err := normalizeMobile(mobile)
	if err != nil {
		return err
	}

	if _, err := s.users.FindByMobile(ctx, normalized); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "mobile not registered")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	return s.issueOTP(ctx, normalized)
}

func (s *service) issueOTP(ctx context.Context, mobile string) error {
	code, err := security.GenerateOTP(s.otpCfg.Length)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}
	hash, err := security.HashOTP(code, s.otpCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash otp")
	}

	if err := s.store.Set(ctx, s.store.OTPKey(mobile), hash, s.otpCfg.TTL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}

	if s.sender != nil {
		message := fmt.Sprintf("Your canteen login code is %s. It expires in %d seconds.", code, int(s.otpCfg.TTL.Seconds()))
		if err := s.sender.Send(ctx, mobile, message, ""); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send otp")
		}
	}
	return nil
}

// VerifyOTP checks the submitted code against the stored hash, burns it and
// mints an access token.
func (s *service) VerifyOTP(ctx context.Context, mobile, code string) (*VerifyResult, error) {
	normalized, err := normalizeMobile(mobile)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "otp code is required")
	}

	key := s.store.OTPKey(normalized)
	hash, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "otp expired or never requested")
	}

	ok, err := security.VerifyOTP(strings.TrimSpace(code), hash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify otp")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "incorrect otp")
	}

	// Burn the code; a verified OTP is single-use.
	if err := s.store.Del(ctx, key); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "burn otp")
	}

	user, err := s.users.FindByMobile(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "mobile not registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID: user.ID,
		Mobile: user.Mobile,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	return &VerifyResult{AccessToken: token, User: user}, nil
}

func normalizeMobile(mobile string) (string, error) {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(mobile), "+"))
	if !mobilePattern.MatchString(trimmed) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "mobile must be 10 to 15 digits")
	}
	return trimmed, nil
}
