package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_scoring_tables.sql
var createScoringTablesSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createScoringTablesSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`
				DROP TABLE IF EXISTS participant_scores;
				DROP TABLE IF EXISTS race_registrations;
				DROP TABLE IF EXISTS participant_answers;
				DROP TABLE IF EXISTS official_answers;
				DROP TABLE IF EXISTS questions;
				DROP TABLE IF EXISTS races;
			`)
			return err
		},
	)
}
