package apperrors

import "errors"

// Trade rejection errors. A trade failing with one of these leaves the stored
// ledger untouched.
var (
	// ErrInvalidInput indicates a non-positive quantity, a negative price or an
	// empty symbol. It is returned before any ledger access.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownSymbol indicates a buy of a brand-new symbol that the quote
	// upstream could not price.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrInsufficientQuantity indicates a sell of more shares than the open lot
	// holds, or of a symbol without an open lot.
	ErrInsufficientQuantity = errors.New("insufficient quantity")
)

// Upstream and storage errors.
var (
	// ErrUpstreamUnavailable indicates a per-symbol quote or news fetch failure.
	// Batch fetchers never propagate it; the symbol is simply omitted.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrPersistenceFailure indicates a storage read or write error.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrDataInconsistency indicates that persisted records could not be turned
	// into a valid ledger (e.g. a lot with a negative quantity).
	ErrDataInconsistency = errors.New("data inconsistency detected")
)

// Account errors.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidFrequency   = errors.New("invalid notification frequency")
)

// Operation failure messages used in API error bodies.
var (
	ErrFailedToRegister         = errors.New("failed to register account")
	ErrFailedToLogin            = errors.New("failed to log in")
	ErrFailedToExecuteTrade     = errors.New("failed to execute trade")
	ErrFailedToRetrieveSettings = errors.New("failed to retrieve settings")
	ErrFailedToUpdateSettings   = errors.New("failed to update settings")
	ErrFailedToExport           = errors.New("failed to export portfolio")
	ErrFailedToWipe             = errors.New("failed to wipe portfolio")
	ErrFailedToDeleteAccount    = errors.New("failed to delete account")
	ErrFailedToSendNotification = errors.New("failed to send notification")
	ErrFailedToRunTrigger       = errors.New("failed to run notification trigger")
	ErrFailedToGetVersionInfo   = errors.New("failed to get version information")
)
