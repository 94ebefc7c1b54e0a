package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ndewijer/stock-tracker/internal/apperrors"
	"github.com/ndewijer/stock-tracker/internal/model"
)

// LedgerRepository persists a user's open lots and trade history.
// A ledger is always written as a whole: Save replaces every stored lot and
// trade of the user inside a single transaction.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new LedgerRepository with the provided database connection.
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Load returns the stored lots and the chronological trade history of a user.
// A user without stored records gets two empty slices, never an error.
// Any read failure wraps ErrPersistenceFailure.
func (r *LedgerRepository) Load(ctx context.Context, userID string) ([]model.Lot, []model.Transaction, error) {
	lots, err := r.loadLots(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	history, err := r.loadHistory(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return lots, history, nil
}

func (r *LedgerRepository) loadLots(ctx context.Context, userID string) ([]model.Lot, error) {
	query := `
		SELECT symbol, quantity, average_cost
		FROM lot
		WHERE user_id = ?
		ORDER BY symbol
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query lot table: %w", apperrors.ErrPersistenceFailure, err)
	}
	defer rows.Close()

	lots := []model.Lot{}
	for rows.Next() {
		var l model.Lot
		if err := rows.Scan(&l.Symbol, &l.Quantity, &l.AverageCost); err != nil {
			return nil, fmt.Errorf("%w: failed to scan lot table results: %w", apperrors.ErrPersistenceFailure, err)
		}
		lots = append(lots, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating lot table: %w", apperrors.ErrPersistenceFailure, err)
	}

	return lots, nil
}

func (r *LedgerRepository) loadHistory(ctx context.Context, userID string) ([]model.Transaction, error) {
	query := `
		SELECT id, executed_at, kind, symbol, quantity, price, realized_gain
		FROM trade
		WHERE user_id = ?
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query trade table: %w", apperrors.ErrPersistenceFailure, err)
	}
	defer rows.Close()

	history := []model.Transaction{}
	for rows.Next() {
		var (
			t          model.Transaction
			executedAt string
			kind       string
			gain       sql.NullFloat64
		)

		err := rows.Scan(
			&t.ID,
			&executedAt,
			&kind,
			&t.Symbol,
			&t.Quantity,
			&t.Price,
			&gain,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan trade table results: %w", apperrors.ErrPersistenceFailure, err)
		}

		t.Timestamp, err = ParseTime(executedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: trade %s: %w", apperrors.ErrDataInconsistency, t.ID, err)
		}
		t.Kind = model.TransactionKind(kind)
		if gain.Valid {
			g := gain.Float64
			t.RealizedGain = &g
		}

		history = append(history, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error iterating trade table: %w", apperrors.ErrPersistenceFailure, err)
	}

	return history, nil
}

// Save replaces the stored ledger of a user with lots and history.
// Either everything is written or nothing is; failures wrap ErrPersistenceFailure.
func (r *LedgerRepository) Save(ctx context.Context, userID string, lots []model.Lot, history []model.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrPersistenceFailure, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := deleteLedger(ctx, tx, userID); err != nil {
		return err
	}

	lotStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lot (user_id, symbol, quantity, average_cost)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare lot insert: %w", apperrors.ErrPersistenceFailure, err)
	}
	defer lotStmt.Close()

	for _, l := range lots {
		if _, err := lotStmt.ExecContext(ctx, userID, l.Symbol, l.Quantity, l.AverageCost); err != nil {
			return fmt.Errorf("%w: failed to insert lot %s: %w", apperrors.ErrPersistenceFailure, l.Symbol, err)
		}
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trade (id, user_id, seq, executed_at, kind, symbol, quantity, price, realized_gain)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare trade insert: %w", apperrors.ErrPersistenceFailure, err)
	}
	defer tradeStmt.Close()

	for seq, t := range history {
		_, err := tradeStmt.ExecContext(ctx,
			t.ID,
			userID,
			seq,
			FormatTime(t.Timestamp),
			string(t.Kind),
			t.Symbol,
			t.Quantity,
			t.Price,
			nullFloat(t.RealizedGain),
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert trade %s: %w", apperrors.ErrPersistenceFailure, t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit ledger: %w", apperrors.ErrPersistenceFailure, err)
	}

	return nil
}

// deleteLedger removes every lot and trade of a user inside tx.
func deleteLedger(ctx context.Context, tx *sql.Tx, userID string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM lot WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("%w: failed to delete lots: %w", apperrors.ErrPersistenceFailure, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM trade WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("%w: failed to delete trades: %w", apperrors.ErrPersistenceFailure, err)
	}
	return nil
}
