package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("orders")

		collection.Fields.Add(
			&core.TextField{
				Name:     "reservation_id",
				Required: true,
			},
			&core.TextField{
				Name:     "user_id",
				Required: true,
			},
			&core.TextField{
				Name:     "event_id",
				Required: true,
			},
			&core.TextField{
				Name:     "tier_id",
				Required: true,
			},
			&core.NumberField{
				Name:     "quantity",
				Required: true,
				OnlyInt:  true,
				Min:      types.Pointer(1.0),
			},
			&core.NumberField{
				Name:    "total_amount_minor_units",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.TextField{
				Name:     "currency",
				Required: true,
				Max:      3,
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"pending", "paid", "failed"},
			},
			&core.EmailField{
				Name: "buyer_email",
			},
			&core.TextField{
				Name: "buyer_phone",
			},
			&core.JSONField{
				Name:    "attendee_names",
				MaxSize: 4096,
			},
			&core.TextField{
				Name: "external_payment_ref",
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
		)

		// One order per reservation; the issuer relies on this for idempotence.
		collection.AddIndex("idx_orders_reservation", true, "reservation_id", "")
		collection.AddIndex("idx_orders_user", false, "user_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("orders")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
