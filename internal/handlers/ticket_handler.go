package handlers

import (
	"net/http"

	"eventpass/internal/services"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

type TicketHandler struct {
	app    *pocketbase.PocketBase
	issuer *services.IssuerService
}

func NewTicketHandler(app *pocketbase.PocketBase, issuer *services.IssuerService) *TicketHandler {
	return &TicketHandler{
		app:    app,
		issuer: issuer,
	}
}

// GetOrder - GET /api/v1/orders/{id}
func (h *TicketHandler) GetOrder(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	order, err := h.issuer.GetOrder(e.Request.Context(), e.Request.PathValue("id"))
	if err != nil {
		return apis.NewNotFoundError("Order not found", nil)
	}
	if order.UserID != e.Auth.Id {
		return apis.NewForbiddenError("Access denied", nil)
	}

	tickets, err := h.issuer.TicketsForOrder(e.Request.Context(), order.ID)
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Failed to load tickets", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"order":   order,
		"tickets": tickets,
	})
}

// GetMyTickets - GET /api/v1/tickets
// Purchase history for the signed-in buyer, newest orders first.
func (h *TicketHandler) GetMyTickets(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	orders, err := h.app.FindRecordsByFilter(
		"orders",
		"user_id = {:userId}",
		"-created",
		50,
		0,
		map[string]any{"userId": e.Auth.Id},
	)
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Failed to load orders", err)
	}

	result := []map[string]any{}
	for _, order := range orders {
		tickets, err := h.issuer.TicketsForOrder(e.Request.Context(), order.Id)
		if err != nil {
			continue
		}

		result = append(result, map[string]any{
			"order_id":     order.Id,
			"event_id":     order.GetString("event_id"),
			"tier_id":      order.GetString("tier_id"),
			"quantity":     order.GetInt("quantity"),
			"total_amount": order.GetInt("total_amount_minor_units"),
			"currency":     order.GetString("currency"),
			"created_at":   order.GetDateTime("created"),
			"tickets":      tickets,
		})
	}

	return e.JSON(http.StatusOK, map[string]any{"orders": result})
}
