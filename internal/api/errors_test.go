package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"jyotai-backend/internal/core"
)

type errorCase struct {
	name   string
	err    error
	status int
	code   string
}

func runErrorCases(t *testing.T, mapper func(error) (int, string), cases []errorCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, code := mapper(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, code)
		})
	}
}

var errStorage = errors.New("deadline exceeded")

func TestMapAuthErrorToStatus(t *testing.T) {
	runErrorCases(t, mapAuthErrorToStatus, []errorCase{
		{"bad email", fmt.Errorf("%w: no @", core.ErrInvalidEmail), http.StatusBadRequest, CodeInvalidEmail},
		{"rejected token", fmt.Errorf("%w: expired", core.ErrUnauthorized), http.StatusUnauthorized, CodeUnauthorized},
		{"provider down", errStorage, http.StatusInternalServerError, CodeInternal},
	})
}

func TestMapPaymentErrorToStatus(t *testing.T) {
	runErrorCases(t, mapPaymentErrorToStatus, []errorCase{
		{"signature", core.ErrInvalidSignature, http.StatusBadRequest, CodeInvalidSignature},
		{"email", core.ErrInvalidEmail, http.StatusBadRequest, CodeInvalidEmail},
		{"amount", fmt.Errorf("%w: below minimum", core.ErrInvalidAmount), http.StatusBadRequest, CodeInvalidPayload},
		{"purpose", core.ErrInvalidPurpose, http.StatusBadRequest, CodeInvalidPayload},
		{"payload", core.ErrInvalidPayload, http.StatusBadRequest, CodeInvalidPayload},
		{"gateway", fmt.Errorf("%w: 503", core.ErrGateway), http.StatusBadGateway, CodeGatewayError},
		// The gateway must redeliver when storage fails mid-webhook.
		{"storage", errStorage, http.StatusInternalServerError, CodeInternal},
		{"allowance errors are not payment errors", core.ErrLimitExceeded, http.StatusInternalServerError, CodeInternal},
	})
}

func TestMapPredictionErrorToStatus(t *testing.T) {
	runErrorCases(t, mapPredictionErrorToStatus, []errorCase{
		{"missing fields", core.ErrInvalidPayload, http.StatusBadRequest, CodeInvalidPayload},
		{"limit", core.ErrLimitExceeded, http.StatusForbidden, CodeLimitExceeded},
		{"expired", core.ErrPlanExpired, http.StatusForbidden, CodePlanExpired},
		{"no plan", core.ErrNoPlan, http.StatusForbidden, CodeForbidden},
		{"foreign uid", fmt.Errorf("%w: session does not own user", core.ErrForbidden), http.StatusForbidden, CodeForbidden},
		{"user", core.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
		{"prediction", core.ErrPredictionNotFound, http.StatusNotFound, CodeNotFound},
		{"storage", errStorage, http.StatusInternalServerError, CodeInternal},
	})
}

func TestMapAdminErrorToStatus(t *testing.T) {
	runErrorCases(t, mapAdminErrorToStatus, []errorCase{
		{"unknown op", fmt.Errorf("%w: %q", core.ErrUnknownOperation, "wipe"), http.StatusBadRequest, CodeInvalidPayload},
		{"zero delta", core.ErrInvalidPayload, http.StatusBadRequest, CodeInvalidPayload},
		{"bad email", core.ErrInvalidEmail, http.StatusBadRequest, CodeInvalidEmail},
		{"user", core.ErrUserNotFound, http.StatusNotFound, CodeNotFound},
		{"storage", errStorage, http.StatusInternalServerError, CodeInternal},
	})
}

func TestMapUserErrorToStatus(t *testing.T) {
	runErrorCases(t, mapUserErrorToStatus, []errorCase{
		{"user", fmt.Errorf("%w: user with ID 'x'", core.ErrUserNotFound), http.StatusNotFound, CodeNotFound},
		{"storage", errStorage, http.StatusInternalServerError, CodeInternal},
	})
}
