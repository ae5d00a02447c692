package core

import "errors"

// Errors returned by the services. Handlers classify them with errors.Is; callers should never
// match on message text.
var (
	ErrInvalidSignature   = errors.New("invalid webhook signature")
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidPurpose     = errors.New("invalid purpose")
	ErrUserNotFound       = errors.New("user not found")
	ErrPredictionNotFound = errors.New("prediction not found")
	ErrLimitExceeded      = errors.New("prediction limit exceeded")
	ErrPlanExpired        = errors.New("premium plan expired")
	ErrNoPlan             = errors.New("user has no plan")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrGateway            = errors.New("payment gateway error")
	ErrUnknownOperation   = errors.New("unknown operation")
)
