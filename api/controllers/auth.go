package controllers

import (
	"net/http"

	"github.com/worldtek/canteen-backend/api/responses"
	"github.com/worldtek/canteen-backend/api/validators"
	authsvc "github.com/worldtek/canteen-backend/internal/auth"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
	"github.com/worldtek/canteen-backend/pkg/logger"
)

type requestOTPRequest struct {
	Mobile    string  `json:"mobile" validate:"required"`
	FirstName string  `json:"first_name"`
	LastName  *string `json:"last_name"`
}

type verifyOTPRequest struct {
	Mobile string `json:"mobile" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

type resendOTPRequest struct {
	Mobile string `json:"mobile" validate:"required"`
}

// AuthRequestOTP starts an OTP login, registering unknown mobiles on the fly.
func AuthRequestOTP(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload requestOTPRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err := svc.RequestOTP(r.Context(), authsvc.RequestOTPInput{
			Mobile:    payload.Mobile,
			FirstName: validators.SanitizeString(payload.FirstName, 100),
			LastName:  payload.LastName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "otp_sent"})
	}
}

// AuthVerifyOTP exchanges a valid code for an access token.
func AuthVerifyOTP(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload verifyOTPRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyOTP(r.Context(), payload.Mobile, payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// AuthResendOTP reissues a code for an already-registered mobile.
func AuthResendOTP(svc authsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload resendOTPRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ResendOTP(r.Context(), payload.Mobile); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "otp_sent"})
	}
}
