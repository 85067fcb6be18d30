package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("reservations")

		collection.Fields.Add(
			&core.TextField{
				Name:     "user_id",
				Required: true,
			},
			&core.TextField{
				Name:     "tier_id",
				Required: true,
			},
			&core.TextField{
				Name: "event_id",
			},
			&core.NumberField{
				Name:     "quantity",
				Required: true,
				OnlyInt:  true,
				Min:      types.Pointer(1.0),
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "confirmed", "expired", "cancelled"},
			},
			&core.TextField{
				Name: "external_payment_ref",
			},
			// Exact total the payment intent was created for, kept for
			// verification against what the gateway charged.
			&core.NumberField{
				Name:    "intent_amount_minor_units",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.DateField{
				Name:     "expires_at",
				Required: true,
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
			&core.AutodateField{
				Name:     "updated",
				OnCreate: true,
				OnUpdate: true,
			},
		)

		collection.AddIndex("idx_reservations_status", false, "status, expires_at", "")
		collection.AddIndex("idx_reservations_user", false, "user_id", "")

		// At most one live reservation per external payment reference.
		collection.AddIndex("idx_reservations_payment_ref", true, "external_payment_ref",
			"external_payment_ref != '' AND status != 'expired' AND status != 'cancelled'")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("reservations")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
