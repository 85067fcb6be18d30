package migrations

import (
	"github.com/pocketbase/pocketbase/core"
	m "github.com/pocketbase/pocketbase/migrations"
)

func init() {
	m.Register(func(app core.App) error {
		collection := core.NewBaseCollection("tickets")

		collection.Fields.Add(
			&core.TextField{
				Name:     "order_id",
				Required: true,
			},
			&core.TextField{
				Name:     "tier_id",
				Required: true,
			},
			&core.TextField{
				Name: "event_id",
			},
			&core.TextField{
				Name: "attendee_name",
			},
			&core.TextField{
				Name:     "credential",
				Required: true,
			},
			&core.SelectField{
				Name:      "status",
				Required:  true,
				MaxSelect: 1,
				Values:    []string{"active", "used", "cancelled"},
			},
			&core.AutodateField{
				Name:     "created",
				OnCreate: true,
			},
		)

		// Credential reuse anywhere in the system is an integrity bug.
		collection.AddIndex("idx_tickets_credential", true, "credential", "")
		collection.AddIndex("idx_tickets_order", false, "order_id", "")

		return app.Save(collection)
	}, func(app core.App) error {
		collection, err := app.FindCollectionByNameOrId("tickets")
		if err != nil {
			return err
		}
		return app.Delete(collection)
	})
}
