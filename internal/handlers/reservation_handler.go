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

type ReservationHandler struct {
	app          *pocketbase.PocketBase
	reservations *services.ReservationService
	payments     *services.PaymentService
	inventory    *services.InventoryService
}

func NewReservationHandler(app *pocketbase.PocketBase, reservations *services.ReservationService,
	payments *services.PaymentService, inventory *services.InventoryService) *ReservationHandler {
	return &ReservationHandler{
		app:          app,
		reservations: reservations,
		payments:     payments,
		inventory:    inventory,
	}
}

// CreateReservation - POST /api/v1/reservations
func (h *ReservationHandler) CreateReservation(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		TierID   string `json:"tier_id"`
		Quantity int    `json:"quantity"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	reservation, err := h.reservations.CreateReservation(e.Request.Context(), e.Auth.Id, req.TierID, req.Quantity)
	switch {
	case err == nil:
	case errors.Is(err, status.ErrSoldOut):
		return apis.NewApiError(http.StatusConflict, "Not enough tickets left in this tier", nil)
	case errors.Is(err, status.ErrInvalidQuantity):
		return apis.NewBadRequestError("Invalid quantity", nil)
	case errors.Is(err, status.ErrTierNotFound):
		return apis.NewNotFoundError("Ticket tier not found", nil)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Failed to create reservation", err)
	}

	return e.JSON(http.StatusOK, reservation)
}

// GetReservation - GET /api/v1/reservations/{id}
func (h *ReservationHandler) GetReservation(e *core.RequestEvent) error {
	reservation, err := h.ownedReservation(e)
	if err != nil {
		return err
	}
	return e.JSON(http.StatusOK, reservation)
}

// CancelReservation - POST /api/v1/reservations/{id}/cancel
func (h *ReservationHandler) CancelReservation(e *core.RequestEvent) error {
	reservation, err := h.ownedReservation(e)
	if err != nil {
		return err
	}

	if err := h.reservations.Cancel(e.Request.Context(), reservation.ID); err != nil {
		if errors.Is(err, status.ErrInvalidState) {
			return apis.NewApiError(http.StatusConflict, "Reservation can no longer be cancelled", nil)
		}
		return apis.NewApiError(http.StatusInternalServerError, "Failed to cancel reservation", err)
	}

	return e.JSON(http.StatusOK, map[string]string{"message": "Reservation cancelled"})
}

// CreatePaymentIntent - POST /api/v1/reservations/{id}/payment-intent
func (h *ReservationHandler) CreatePaymentIntent(e *core.RequestEvent) error {
	reservation, err := h.ownedReservation(e)
	if err != nil {
		return err
	}

	var req struct {
		Email         string   `json:"email"`
		Phone         string   `json:"phone"`
		AttendeeNames []string `json:"attendee_names"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	intent, err := h.payments.CreateIntent(e.Request.Context(), reservation.ID, services.OrderDetails{
		Contact:       models.BuyerContact{Email: req.Email, Phone: req.Phone},
		AttendeeNames: req.AttendeeNames,
	})
	switch {
	case err == nil:
	case errors.Is(err, status.ErrInvalidState):
		return apis.NewApiError(http.StatusConflict, "Reservation is not payable", nil)
	case errors.Is(err, status.ErrAttendeeCount):
		return apis.NewBadRequestError("Attendee names must match ticket quantity", nil)
	case errors.Is(err, status.ErrReservationConflict):
		return apis.NewApiError(http.StatusConflict, "A different payment is already attached", nil)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Failed to create payment intent", err)
	}

	return e.JSON(http.StatusOK, intent)
}

// GetTierAvailability - GET /api/v1/tiers/{tierId}/availability
// Advisory read for the storefront; enforcement happens on reserve.
func (h *ReservationHandler) GetTierAvailability(e *core.RequestEvent) error {
	tierID := e.Request.PathValue("tierId")

	available, err := h.inventory.AvailableCount(e.Request.Context(), tierID)
	if err != nil {
		return apis.NewNotFoundError("Ticket tier not found", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"tier_id":   tierID,
		"available": available,
	})
}

// ownedReservation loads the path reservation and enforces ownership.
func (h *ReservationHandler) ownedReservation(e *core.RequestEvent) (*models.Reservation, error) {
	if e.Auth == nil {
		return nil, apis.NewUnauthorizedError("Unauthorized", nil)
	}

	reservation, err := h.reservations.GetReservation(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return nil, apis.NewNotFoundError("Reservation not found", nil)
	}
	if reservation.UserID != e.Auth.Id {
		return nil, apis.NewForbiddenError("Access denied", nil)
	}
	return reservation, nil
}
