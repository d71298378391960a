package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/backend-bits/saas-backend/pkg/pg"
)

// PostgresStore keeps orders in the orders table created by Migrations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const orderColumns = `id, user_id, plan_code, amount, currency, status, payment_id, checkout_url, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, o *Order) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.UserID, o.PlanCode, o.Amount.Amount, o.Amount.Currency,
		string(o.Status), o.PaymentID, o.CheckoutURL, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, o.ID)
		}
		return fmt.Errorf("billing: insert order: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("billing: get order: %w", err)
	}
	return o, nil
}

// Transition is a single conditional UPDATE; zero affected rows means the
// order is missing or already moved.
func (s *PostgresStore) Transition(ctx context.Context, id string, from, to Status, paymentID string) error {
	if err := checkTransition(from, to); err != nil {
		return fmt.Errorf("%w: %s -> %s", err, from, to)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE orders
		SET status = $3,
		    payment_id = CASE WHEN $4 = '' THEN payment_id ELSE $4 END,
		    updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), paymentID,
	)
	if err != nil {
		return fmt.Errorf("billing: transition order: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("billing: transition order: %w", err)
	}
	if !exists {
		return ErrOrderNotFound
	}
	return ErrStatusConflict
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("billing: list orders: %w", err)
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("billing: scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("billing: list orders: %w", err)
	}
	return out, nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o      Order
		status string
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.PlanCode, &o.Amount.Amount, &o.Amount.Currency,
		&status, &o.PaymentID, &o.CheckoutURL, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	if !o.Status.valid() {
		return nil, errors.New("unknown order status " + status)
	}
	return &o, nil
}
