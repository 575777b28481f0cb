// Command seed loads the demo catalog into Postgres.
package main

import (
	"context"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/catalog"
	"github.com/ariefcatur/storefront-orders/internal/config"
	"github.com/ariefcatur/storefront-orders/internal/logx"
	"github.com/ariefcatur/storefront-orders/internal/postgres"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logx.New(cfg.ServiceName+"-seed", cfg.LogLevel, cfg.LogPretty)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	repo := &catalog.Repo{DB: db}
	demo := catalog.Demo()
	for _, p := range demo {
		if err := repo.Upsert(ctx, p); err != nil {
			log.Fatal().Err(err).Str("sku", p.SKU).Msg("seed product")
		}
	}
	log.Info().Int("products", len(demo)).Msg("catalog seeded")
}
