package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gatehouse/internal/config"
	"gatehouse/internal/constants"
	"gatehouse/internal/db"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/models/entities"
)

// Seeds the default application types into whichever storage backend the
// environment points at. Existing types are left alone.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	var store db.DocumentStore
	switch cfg.StorageBackend {
	case "sqlite", "postgres":
		orm, err := db.InitORM(cfg.StorageBackend, cfg.StorageDSN)
		if err != nil {
			log.Fatalf("open storage: %v", err)
		}
		store = db.NewGormDocumentStore(orm, cfg.StorageBackend)
	default:
		if store, err = db.NewJSONFileStore(cfg.DataDir); err != nil {
			log.Fatalf("open storage: %v", err)
		}
	}

	repo := repositories.NewApplicationTypeRepository(db.NewCollections(store, true, nil))
	ctx := context.Background()

	for _, t := range defaultTypes() {
		err := repo.Create(ctx, t)
		switch {
		case err == nil:
			fmt.Println("Created application type:", t.ID)
		case errors.Is(err, constants.ErrConflict):
			fmt.Println("Already present:", t.ID)
		default:
			log.Fatalf("create %s: %v", t.ID, err)
		}
	}
}

func defaultTypes() []entities.ApplicationType {
	return []entities.ApplicationType{
		{
			ID:           constants.DefaultApplicationType,
			Name:         "Whitelist",
			Description:  "Access to the game server",
			CooldownDays: 14,
			Fields: []entities.FieldDefinition{
				{ID: "characterName", Label: "Character name", Type: constants.FieldText, Required: true},
				{ID: "age", Label: "Age", Type: constants.FieldNumber, Required: true},
				{ID: "backstory", Label: "Character backstory", Type: constants.FieldTextarea, Required: true},
				{ID: "rulesAccepted", Label: "I have read the rules", Type: constants.FieldCheckbox, Required: true},
			},
		},
		{
			ID:             "staff",
			Name:           "Staff",
			Description:    "Join the moderation team",
			CooldownDays:   30,
			UniqueApproved: true,
			Fields: []entities.FieldDefinition{
				{ID: "experience", Label: "Moderation experience", Type: constants.FieldTextarea, Required: true},
				{ID: "timezone", Label: "Timezone", Type: constants.FieldSelect, Required: true, Options: []string{"EU", "NA", "OCE", "ASIA"}},
			},
		},
	}
}
