package services

import (
	"context"
	"fmt"

	"eventpass/internal/status"
	"eventpass/models"

	"github.com/pocketbase/pocketbase/core"
)

// InventoryService is the single source of truth for tier availability.
// All counter movement happens through single guarded UPDATE statements,
// so concurrent holds and sales resolve at the database row without any
// read-then-write window: a statement either finds the guard satisfied
// and moves the counters, or affects zero rows.
type InventoryService struct {
	app core.App
}

func NewInventoryService(app core.App) *InventoryService {
	return &InventoryService{app: app}
}

// GetTier loads a tier snapshot. The counters are only a point-in-time
// read; use TryHold for enforcement.
func (s *InventoryService) GetTier(ctx context.Context, tierID string) (*models.TicketTier, error) {
	record, err := s.app.FindRecordById("ticket_tiers", tierID)
	if err != nil {
		return nil, status.ErrTierNotFound
	}
	return tierFromRecord(record), nil
}

// AvailableCount returns total - sold - held, never negative.
func (s *InventoryService) AvailableCount(ctx context.Context, tierID string) (int, error) {
	tier, err := s.GetTier(ctx, tierID)
	if err != nil {
		return 0, err
	}
	return tier.Available(), nil
}

// TryHold atomically checks availability and increments held_quantity.
// The app argument is the caller's transaction scope, so a hold and the
// reservation row it backs commit or roll back together.
func (s *InventoryService) TryHold(ctx context.Context, app core.App, tierID string, quantity int) error {
	if quantity < 1 {
		return status.ErrInvalidQuantity
	}

	result, err := app.DB().NewQuery(`
		UPDATE ticket_tiers
		SET held_quantity = held_quantity + {:q}
		WHERE id = {:id}
		  AND sold_quantity + held_quantity + {:q} <= total_quantity
	`).Bind(map[string]any{"q": quantity, "id": tierID}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("inventory: try hold: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("inventory: try hold rows: %w", err)
	}
	if rows == 0 {
		if _, err := app.FindRecordById("ticket_tiers", tierID); err != nil {
			return status.ErrTierNotFound
		}
		return status.ErrInsufficientInventory
	}
	return nil
}

// ReleaseHold decrements held_quantity, clamped at zero so a double
// release cannot push the counter negative.
func (s *InventoryService) ReleaseHold(ctx context.Context, app core.App, tierID string, quantity int) error {
	if quantity < 1 {
		return status.ErrInvalidQuantity
	}

	_, err := app.DB().NewQuery(`
		UPDATE ticket_tiers
		SET held_quantity = MAX(held_quantity - {:q}, 0)
		WHERE id = {:id}
	`).Bind(map[string]any{"q": quantity, "id": tierID}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("inventory: release hold: %w", err)
	}
	return nil
}

// CommitSale moves quantity from held to sold in one statement. The
// guard on held_quantity should always pass when a hold precedes the
// sale; a zero-row result means the ledger is out of step and the
// caller must abort its transaction.
func (s *InventoryService) CommitSale(ctx context.Context, app core.App, tierID string, quantity int) error {
	if quantity < 1 {
		return status.ErrInvalidQuantity
	}

	result, err := app.DB().NewQuery(`
		UPDATE ticket_tiers
		SET held_quantity = held_quantity - {:q},
		    sold_quantity = sold_quantity + {:q}
		WHERE id = {:id}
		  AND held_quantity >= {:q}
	`).Bind(map[string]any{"q": quantity, "id": tierID}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("inventory: commit sale: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("inventory: commit sale rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("inventory: commit sale without matching hold on tier %s: %w",
			tierID, status.ErrInsufficientInventory)
	}
	return nil
}
