package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrBadOperation     = fmt.Errorf("operation not valid in current state")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrCodeExchange     = fmt.Errorf("authorization code exchange failed")
	ErrTokenRefresh     = fmt.Errorf("token refresh failed")
	ErrServerBind       = fmt.Errorf("failed to bind callback listener")
	ErrServerFailure    = fmt.Errorf("callback request failed")

	// API errors
	ErrAPIRequest     = fmt.Errorf("API request failed")
	ErrDecodeResponse = fmt.Errorf("failed to decode API response")

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
