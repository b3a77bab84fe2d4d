package integration

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"skill-swap/internal/config"
	"skill-swap/internal/database"
	"skill-swap/internal/database/migration"
	dbpostgres "skill-swap/internal/database/postgres"
	"skill-swap/internal/domain/swap"
	"skill-swap/internal/repository"
	"skill-swap/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(context.Context, uuid.UUID, string, any) {}

type seededSkills struct {
	alice, bob      uuid.UUID
	guitar, spanish uuid.UUID
}

func TestIntegration_SwapLifecycleOnPostgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := connectTestDB(t, ctx)
	defer func() { _ = db.Close() }()

	require.NoError(t, migration.Runner{Logger: zap.NewNop()}.Run(ctx, db.SQLDB()))

	seed := seedSkills(t, ctx, db)
	defer cleanupSeed(t, db, seed)

	swaps := repository.NewPostgresSwapRepository(db)
	uc := usecase.NewSwapLifecycle(swaps, repository.NewPostgresSkillDirectory(db), nopDispatcher{}, zap.NewNop())

	in := usecase.ProposeSwapInput{
		RequesterID:    seed.alice,
		ResponderID:    seed.bob,
		OfferedSkillID: seed.guitar,
		WantedSkillID:  seed.spanish,
	}

	first, err := uc.Propose(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "Guitar", first.OfferedSkillName)

	_, err = uc.Propose(ctx, in)
	require.ErrorIs(t, err, usecase.ErrDuplicateSwapRequest, "partial unique index rejects a second pending row")

	// Both resolutions race on the conditional update; exactly one wins.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() { defer wg.Done(); _, errs[0] = uc.Accept(ctx, first.ID, seed.bob) }()
	go func() { defer wg.Done(); _, errs[1] = uc.Cancel(ctx, first.ID, seed.alice) }()
	wg.Wait()

	var wins int
	for _, e := range errs {
		if e == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, e, usecase.ErrInvalidStateTransition)
	}
	assert.Equal(t, 1, wins)

	stored, err := swaps.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, stored.Status.Terminal())
	require.NotNil(t, stored.UpdatedAt)

	_, err = swaps.TransitionStatus(ctx, first.ID, swap.StatusPending, swap.StatusRejected, time.Now())
	assert.ErrorIs(t, err, repository.ErrSwapStatusConflict)
	_, err = swaps.TransitionStatus(ctx, uuid.New(), swap.StatusPending, swap.StatusRejected, time.Now())
	assert.ErrorIs(t, err, repository.ErrSwapRecordNotFound)

	second, err := uc.Propose(ctx, in)
	require.NoError(t, err, "a resolved swap no longer blocks a new proposal")

	pending := swap.StatusPending
	list, err := uc.ListForUser(ctx, seed.bob, &pending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)
}

func connectTestDB(t *testing.T, ctx context.Context) database.DB {
	t.Helper()

	host := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_HOST"), os.Getenv("DB_HOST"))
	port := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_PORT"), os.Getenv("DB_PORT"))
	name := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_NAME"), os.Getenv("DB_NAME"))
	user := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_USER"), os.Getenv("DB_USER"))
	pass := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	ssl := stringsOrDefault(os.Getenv("SKILLSWAP_TEST_DB_SSL_MODE"), os.Getenv("DB_SSL_MODE"))

	if host == "" || port == "" || name == "" || user == "" {
		t.Skip("missing test DB env vars: set SKILLSWAP_TEST_DB_HOST/PORT/NAME/USER/PASSWORD (or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD)")
	}

	db, err := dbpostgres.Connect(ctx, config.DatabaseConfig{
		DBHost:     host,
		DBPort:     port,
		DBName:     name,
		DBUser:     user,
		DBPassword: pass,
		DBSSLMode:  ssl,
	}, zap.NewNop())
	require.NoError(t, err, "connect db")
	return db
}

func seedSkills(t *testing.T, ctx context.Context, db database.DB) seededSkills {
	t.Helper()
	s := seededSkills{alice: uuid.New(), bob: uuid.New(), guitar: uuid.New(), spanish: uuid.New()}

	const q = `INSERT INTO skills (id, user_id, skill_name, type, approved) VALUES ($1, $2, $3, 'offered', TRUE)`
	_, err := db.Exec(ctx, q, s.guitar, s.alice, "Guitar")
	require.NoError(t, err)
	_, err = db.Exec(ctx, q, s.spanish, s.bob, "Spanish")
	require.NoError(t, err)
	return s
}

func cleanupSeed(t *testing.T, db database.DB, s seededSkills) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	_, err := db.Exec(ctx, `DELETE FROM swap_requests WHERE requester_id = $1 OR responder_id = $1`, s.alice)
	errs = append(errs, err)
	_, err = db.Exec(ctx, `DELETE FROM skills WHERE user_id = $1 OR user_id = $2`, s.alice, s.bob)
	errs = append(errs, err)
	if err := errors.Join(errs...); err != nil {
		t.Logf("cleanup: %v", err)
	}
}

func stringsOrDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return strings.TrimSpace(def)
}
