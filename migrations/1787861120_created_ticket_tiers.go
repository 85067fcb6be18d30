package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
	"github.com/pocketbase/pocketbase/tools/types"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("ticket_tiers")

		collection.Fields.Add(
			&core.TextField{
				Name:     "event_id",
				Required: true,
			},
			&core.TextField{
				Name:     "name",
				Required: true,
			},
			&core.NumberField{
				Name:    "price_minor_units",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.TextField{
				Name:     "currency",
				Required: true,
				Max:      3,
			},
			&core.NumberField{
				Name:     "total_quantity",
				Required: true,
				OnlyInt:  true,
				Min:      types.Pointer(0.0),
			},
			&core.NumberField{
				Name:    "sold_quantity",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
			},
			&core.NumberField{
				Name:    "held_quantity",
				OnlyInt: true,
				Min:     types.Pointer(0.0),
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

		collection.AddIndex("idx_ticket_tiers_event", false, "event_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("ticket_tiers")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
