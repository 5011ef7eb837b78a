package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed         = fmt.Errorf("authentication failed")
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrTooManyAttempts    = fmt.Errorf("too many failed login attempts")
	ErrAccountExists      = fmt.Errorf("account already exists")
	ErrAccountNotFound    = fmt.Errorf("account not found")

	// API and service errors
	ErrAPIRequest      = fmt.Errorf("API request failed")
	ErrCommandRejected = fmt.Errorf("command rejected")
	ErrBookingNotFound = fmt.Errorf("booking not found")

	// Booking errors
	ErrValidation        = fmt.Errorf("validation failed")
	ErrPastDate          = fmt.Errorf("date is in the past")
	ErrDateTaken         = fmt.Errorf("date already booked")
	ErrAdminCannotCreate = fmt.Errorf("admin cannot create bookings")
	ErrMutationFailed    = fmt.Errorf("change could not be saved")
	ErrSyncSkipped       = fmt.Errorf("sync skipped")
	ErrDuplicateID       = fmt.Errorf("duplicate booking id")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
