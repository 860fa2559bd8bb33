package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiniela-scoring-service/internal/app"
	"quiniela-scoring-service/internal/config"
	pgstore "quiniela-scoring-service/internal/infra/postgres"
	rediscatalog "quiniela-scoring-service/internal/infra/redis"
)

// NewRecomputeCmd builds the CLI subcommand that regrades one race.
func NewRecomputeCmd(configPath *string) *cobra.Command {
	var raceID string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute all participant scores for a race",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecompute(cmd.Context(), *configPath, raceID)
		},
	}
	cmd.Flags().StringVar(&raceID, "race", "", "race to recompute")
	_ = cmd.MarkFlagRequired("race")
	return cmd
}

func runRecompute(ctx context.Context, configPath, raceID string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	pgCatalog := pgstore.NewCatalog(pool)
	var catalog app.QuestionCatalog = pgCatalog
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		catalogTTL := config.TTLDuration(cfg.Catalog.TTL, 10*time.Minute)
		catalog = rediscatalog.NewCatalog(redisClient, pgCatalog, catalogTTL)
	}

	answers := pgstore.NewAnswerStore(pool)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()
	store := pgstore.NewScoreStore(db)

	service := app.NewScoreService(catalog, answers, answers, store)

	result, err := service.RecomputeRaceScores(ctx, raceID)
	if err != nil {
		log.Printf("recompute race %s failed: %s", raceID, result.Message)
		return err
	}
	log.Printf("recompute race %s: %s", raceID, result.Message)
	return nil
}
