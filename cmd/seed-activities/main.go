package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/config"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/database"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/intervention"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/logger"
	"github.com/rowanberg/catalyst-wellbeing2-sub012/internal/repository"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	repo := repository.NewInterventionRepository(pool)
	catalog := intervention.DefaultCatalog()

	fmt.Printf("=== Seeding %d Intervention Activities ===\n", len(catalog))

	if err := repo.UpsertActivities(ctx, catalog); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed activities")
	}

	for _, c := range intervention.Categories {
		fmt.Printf("  %-12s %d\n", c, len(intervention.FilterByCategory(catalog, c)))
	}
	fmt.Println("\nSeed completed!")
}
