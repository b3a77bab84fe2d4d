package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"skill-swap/internal/database"
	"skill-swap/internal/domain/swap"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrSwapRecordNotFound = errors.New("swap request not found")
	ErrSwapStatusConflict = errors.New("swap status changed concurrently")
	ErrPendingSwapExists  = errors.New("pending swap request already exists")
)

// SwapRepository is the storage contract of the lifecycle engine.
//
// Create must reject a pending duplicate (same skill pair, same two users in
// either direction) atomically with the insert. TransitionStatus must only
// write when the persisted status still equals from.
type SwapRepository interface {
	Create(ctx context.Context, s swap.SwapRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (swap.SwapRequest, error)
	FindByUser(ctx context.Context, userID uuid.UUID, status *swap.Status) ([]swap.SwapRequest, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to swap.Status, at time.Time) (swap.SwapRequest, error)
}

const pendingPairIndex = "swap_requests_pending_pair_uq"

const swapColumns = `id, requester_id, responder_id, offered_skill_id, wanted_skill_id,
	offered_skill_name, wanted_skill_name, status, created_at, updated_at`

type PostgresSwapRepository struct {
	db database.DB
}

func NewPostgresSwapRepository(db database.DB) *PostgresSwapRepository {
	return &PostgresSwapRepository{db: db}
}

func (r *PostgresSwapRepository) Create(ctx context.Context, s swap.SwapRequest) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO swap_requests (id, requester_id, responder_id, offered_skill_id, wanted_skill_id,
			offered_skill_name, wanted_skill_name, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.RequesterID, s.ResponderID, s.OfferedSkillID, s.WantedSkillID,
		s.OfferedSkillName, s.WantedSkillName, string(s.Status), s.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == pendingPairIndex {
			return ErrPendingSwapExists
		}
		return err
	}
	return nil
}

func (r *PostgresSwapRepository) FindByID(ctx context.Context, id uuid.UUID) (swap.SwapRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+swapColumns+` FROM swap_requests WHERE id = $1`, id)
	s, err := scanSwap(row)
	if err != nil {
		if isNoRows(err) {
			return swap.SwapRequest{}, ErrSwapRecordNotFound
		}
		return swap.SwapRequest{}, err
	}
	return s, nil
}

func (r *PostgresSwapRepository) FindByUser(ctx context.Context, userID uuid.UUID, status *swap.Status) ([]swap.SwapRequest, error) {
	query := `SELECT ` + swapColumns + ` FROM swap_requests WHERE (requester_id = $1 OR responder_id = $1)`
	args := []any{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]swap.SwapRequest, 0)
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TransitionStatus is a single conditional UPDATE. When no row matches, a
// follow-up lookup tells a missing record apart from a lost race.
func (r *PostgresSwapRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to swap.Status, at time.Time) (swap.SwapRequest, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE swap_requests SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = $4
		 RETURNING `+swapColumns,
		string(to), at, id, string(from),
	)
	s, err := scanSwap(row)
	if err == nil {
		return s, nil
	}
	if !isNoRows(err) {
		return swap.SwapRequest{}, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM swap_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return swap.SwapRequest{}, err
	}
	if !exists {
		return swap.SwapRequest{}, ErrSwapRecordNotFound
	}
	return swap.SwapRequest{}, ErrSwapStatusConflict
}

type swapRow interface {
	Scan(dest ...any) error
}

func scanSwap(row swapRow) (swap.SwapRequest, error) {
	var s swap.SwapRequest
	var status string
	if err := row.Scan(
		&s.ID, &s.RequesterID, &s.ResponderID, &s.OfferedSkillID, &s.WantedSkillID,
		&s.OfferedSkillName, &s.WantedSkillName, &status, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return swap.SwapRequest{}, err
	}
	s.Status = swap.Status(status)
	return s, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows)
}
