package status

import "errors"

// Domain errors returned by the inventory and purchase services.
var (
	ErrInsufficientInventory = errors.New("inventory: insufficient inventory")
	ErrTierNotFound          = errors.New("inventory: tier not found")

	ErrSoldOut             = errors.New("reservation: tier sold out")
	ErrReservationNotFound = errors.New("reservation: not found")
	ErrReservationConflict = errors.New("reservation: payment ref conflict")
	ErrInvalidState        = errors.New("reservation: invalid state for operation")
	ErrInvalidQuantity     = errors.New("reservation: quantity must be at least 1")

	ErrAmountMismatch            = errors.New("payment: amount mismatch")
	ErrPaymentVerificationFailed = errors.New("payment: verification failed")

	ErrIssuanceFailed = errors.New("issuer: ticket issuance failed")
	ErrAttendeeCount  = errors.New("issuer: attendee names must match quantity")
	ErrOrderNotFound  = errors.New("order: not found")
)
