// internal/rewards/rewards.go
package rewards

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store persists experience-point grants in Postgres. Each grant writes a
// ledger row and bumps the user's running total; callers are responsible
// for calling it exactly once per intended grant — the store itself does
// not deduplicate.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// AwardXP grants amount XP to playerID and returns the new total.
func (s *Store) AwardXP(ctx context.Context, playerID uuid.UUID, source string, amount int) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin award tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO xp_grants (user_id, source, amount)
		VALUES ($1, $2, $3)
	`, playerID, source, amount)
	if err != nil {
		return 0, fmt.Errorf("insert xp grant: %w", err)
	}

	var newTotal int
	err = tx.QueryRow(ctx, `
		UPDATE users
		SET xp = xp + $1
		WHERE id = $2
		RETURNING xp
	`, amount, playerID).Scan(&newTotal)
	if err != nil {
		return 0, fmt.Errorf("update xp total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit award tx: %w", err)
	}
	return newTotal, nil
}
