package handlers

import (
	"errors"
	"net/http"

	"eventpass/internal/services"
	"eventpass/internal/status"
	"eventpass/models"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type PaymentHandler struct {
	app      *pocketbase.PocketBase
	payments *services.PaymentService
}

func NewPaymentHandler(app *pocketbase.PocketBase, payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		app:      app,
		payments: payments,
	}
}

// VerifyPayment - POST /api/v1/payments/verify
// Receives the signed confirmation from the hosted checkout and, when
// it verifies, returns the issued order.
func (h *PaymentHandler) VerifyPayment(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		OrderID   string `json:"order_id"`
		PaymentID string `json:"payment_id"`
		Signature string `json:"signature"`
		OrderData struct {
			Email         string   `json:"email"`
			Phone         string   `json:"phone"`
			AttendeeNames []string `json:"attendee_names"`
		} `json:"order_data"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	order, err := h.payments.VerifyAndIssue(e.Request.Context(), services.VerifyRequest{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
		Contact: models.BuyerContact{
			Email: req.OrderData.Email,
			Phone: req.OrderData.Phone,
		},
		AttendeeNames: req.OrderData.AttendeeNames,
	})
	switch {
	case err == nil:
	case errors.Is(err, status.ErrPaymentVerificationFailed):
		// Deliberately generic: no detail for a signature forger.
		return apis.NewBadRequestError("Payment could not be verified", nil)
	case errors.Is(err, status.ErrAmountMismatch):
		return apis.NewBadRequestError("Payment could not be verified", nil)
	case errors.Is(err, status.ErrAttendeeCount):
		return apis.NewBadRequestError("Attendee names must match ticket quantity", nil)
	case errors.Is(err, status.ErrReservationNotFound):
		return apis.NewNotFoundError("No reservation for this payment", nil)
	case errors.Is(err, status.ErrInvalidState):
		return apis.NewApiError(http.StatusConflict, "Reservation is no longer payable", nil)
	case errors.Is(err, status.ErrIssuanceFailed):
		return apis.NewApiError(http.StatusInternalServerError, "Ticket issuance failed, please retry", nil)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Payment processing failed", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"order_id": order.ID,
		"order":    order,
	})
}
