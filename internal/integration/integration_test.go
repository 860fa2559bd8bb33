package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"quiniela-scoring-service/internal/app"
	"quiniela-scoring-service/internal/domain"
	pgstore "quiniela-scoring-service/internal/infra/postgres"
	pgmigrations "quiniela-scoring-service/internal/infra/postgres/migrations"
	rediscatalog "quiniela-scoring-service/internal/infra/redis"
)

func TestRecomputeEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBun(t, pgURL)
	defer db.Close()
	migrateSchema(t, ctx, db)
	seedRace(t, ctx, db)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	catalog := rediscatalog.NewCatalog(redisClient, pgstore.NewCatalog(pool), 5*time.Minute)
	answers := pgstore.NewAnswerStore(pool)
	store := pgstore.NewScoreStore(db)
	service := app.NewScoreService(catalog, answers, answers, store)

	result, err := service.RecomputeRaceScores(ctx, "race-1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !result.Success || result.ScoredCount != 3 {
		t.Fatalf("expected 3 scored participants, got %+v", result)
	}

	scores, err := store.ListScores(ctx, "race-1")
	if err != nil {
		t.Fatalf("list scores: %v", err)
	}
	assertPoints(t, scores, map[string]int{
		"alice": 10 + 100, // winner + exact slider
		"bob":   50,       // wrong winner, slider inside the band
		"carol": 0,        // registered, never answered
	})

	// A second run with unchanged inputs must persist identical rows.
	if _, err := service.RecomputeRaceScores(ctx, "race-1"); err != nil {
		t.Fatalf("recompute again: %v", err)
	}
	again, err := store.ListScores(ctx, "race-1")
	if err != nil {
		t.Fatalf("list scores again: %v", err)
	}
	if !reflect.DeepEqual(scores, again) {
		t.Fatalf("expected identical rows, got %+v then %+v", scores, again)
	}

	// Admin corrects the official winner: the rerun reflects only current state.
	setOfficialAnswer(t, ctx, db, "q-winner", domain.TextAnswer("Alonso"))
	if _, err := service.RecomputeRaceScores(ctx, "race-1"); err != nil {
		t.Fatalf("recompute after correction: %v", err)
	}
	corrected, err := store.ListScores(ctx, "race-1")
	if err != nil {
		t.Fatalf("list corrected scores: %v", err)
	}
	assertPoints(t, corrected, map[string]int{
		"alice": 100,
		"bob":   10 + 50,
		"carol": 0,
	})
}

func migrateSchema(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()
	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func seedRace(t *testing.T, ctx context.Context, db *bun.DB) {
	t.Helper()

	exec := func(query string, args ...interface{}) {
		t.Helper()
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			t.Fatalf("seed: %v (query %s)", err, query)
		}
	}

	exec(`INSERT INTO races (id, name, quiniela_close_at) VALUES (?, ?, ?)`,
		"race-1", "Gran Premio 1", time.Now().Add(-time.Hour))

	exec(`INSERT INTO questions (id, race_id, text, qtype, active, params) VALUES (?, ?, ?, ?, ?, ?::jsonb)`,
		"q-winner", "race-1", "Who wins the race?", string(domain.QuestionFreeText), true, `{"maxScore": 10}`)
	exec(`INSERT INTO questions (id, race_id, text, qtype, active, params) VALUES (?, ?, ?, ?, ?, ?::jsonb)`,
		"q-laps", "race-1", "Leader's fastest lap (s)?", string(domain.QuestionSlider), true,
		`{"sliderPointsExact": 100, "sliderThresholdPartial": 5, "sliderPointsPartial": 50}`)
	exec(`INSERT INTO questions (id, race_id, text, qtype, active, params) VALUES (?, ?, ?, ?, ?, ?::jsonb)`,
		"q-retired", "race-1", "Old question", string(domain.QuestionFreeText), false, `{"maxScore": 99}`)

	setOfficialAnswer(t, ctx, db, "q-winner", domain.TextAnswer("Verstappen"))
	setOfficialAnswer(t, ctx, db, "q-laps", domain.NumericAnswer(90))

	addParticipantAnswer(t, ctx, db, "alice", "q-winner", domain.TextAnswer("verstappen"))
	addParticipantAnswer(t, ctx, db, "alice", "q-laps", domain.NumericAnswer(90))
	addParticipantAnswer(t, ctx, db, "bob", "q-winner", domain.TextAnswer("Alonso"))
	addParticipantAnswer(t, ctx, db, "bob", "q-laps", domain.NumericAnswer(94))

	exec(`INSERT INTO race_registrations (race_id, participant_id) VALUES (?, ?)`, "race-1", "carol")
}

func setOfficialAnswer(t *testing.T, ctx context.Context, db *bun.DB, questionID string, value domain.AnswerValue) {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal official answer: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO official_answers (question_id, value) VALUES (?, ?::jsonb)
		 ON CONFLICT (question_id) DO UPDATE SET value=EXCLUDED.value`,
		questionID, string(data)); err != nil {
		t.Fatalf("upsert official answer: %v", err)
	}
}

func addParticipantAnswer(t *testing.T, ctx context.Context, db *bun.DB, participantID, questionID string, value domain.AnswerValue) {
	t.Helper()
	data, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal answer: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO participant_answers (race_id, participant_id, question_id, value) VALUES (?, ?, ?, ?::jsonb)`,
		"race-1", participantID, questionID, string(data)); err != nil {
		t.Fatalf("insert answer: %v", err)
	}
}

func assertPoints(t *testing.T, scores []domain.ParticipantScore, want map[string]int) {
	t.Helper()
	got := make(map[string]int, len(scores))
	for _, s := range scores {
		got[s.ParticipantID] = s.Points
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("scores mismatch: got %v, want %v", got, want)
	}
}

func openBun(t *testing.T, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiniela", "POSTGRES_PASSWORD": "quinielapass", "POSTGRES_DB": "quinieladb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiniela:quinielapass@%s:%s/quinieladb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
