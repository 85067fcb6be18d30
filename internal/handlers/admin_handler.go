package handlers

import (
	"net/http"

	"eventpass/internal/services"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

type AdminHandler struct {
	app        *pocketbase.PocketBase
	reconciler *services.ReconcilerService
	redis      *redis.Client
}

func NewAdminHandler(app *pocketbase.PocketBase, reconciler *services.ReconcilerService, redisClient *redis.Client) *AdminHandler {
	return &AdminHandler{
		app:        app,
		reconciler: reconciler,
		redis:      redisClient,
	}
}

// GetInventoryDashboard - GET /api/v1/admin/inventory
// Tier-by-tier counters straight from the ledger.
func (h *AdminHandler) GetInventoryDashboard(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Superuser only", nil)
	}

	var rows []dbx.NullStringMap
	if err := h.app.DB().NewQuery(`
		SELECT id, event_id, name, total_quantity, sold_quantity, held_quantity
		FROM ticket_tiers
		ORDER BY event_id, name
	`).All(&rows); err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Failed to load inventory", err)
	}

	tiers := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		tiers = append(tiers, map[string]any{
			"id":             row["id"].String,
			"event_id":       row["event_id"].String,
			"name":           row["name"].String,
			"total_quantity": row["total_quantity"].String,
			"sold_quantity":  row["sold_quantity"].String,
			"held_quantity":  row["held_quantity"].String,
		})
	}

	return e.JSON(http.StatusOK, map[string]any{"tiers": tiers})
}

// ForceSweep - POST /api/v1/admin/force-sweep
// Runs a reconciler pass immediately instead of waiting for the
// scheduler.
func (h *AdminHandler) ForceSweep(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewForbiddenError("Superuser only", nil)
	}

	report, err := h.reconciler.Sweep(e.Request.Context())
	if err != nil {
		return apis.NewApiError(http.StatusInternalServerError, "Sweep failed", err)
	}

	return e.JSON(http.StatusOK, report)
}
