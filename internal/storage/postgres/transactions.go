package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
)

const transactionColumns = "id, item_id, seller_id, buyer_id, buyer_name, item_title, item_price, item_image, status, transaction_code, created_at, confirmed_at, completed_at, buyer_deleted, seller_deleted"

func scanTransaction(row interface{ Scan(...interface{}) error }) (*models.Transaction, error) {
	var tx models.Transaction
	var confirmedAt, completedAt sql.NullTime

	if err := row.Scan(&tx.ID, &tx.ItemID, &tx.SellerID, &tx.BuyerID, &tx.BuyerName,
		&tx.ItemTitle, &tx.ItemPrice, &tx.ItemImage, &tx.Status, &tx.TransactionCode,
		&tx.CreatedAt, &confirmedAt, &completedAt, &tx.BuyerDeleted, &tx.SellerDeleted); err != nil {
		return nil, err
	}

	if confirmedAt.Valid {
		tx.ConfirmedAt = &confirmedAt.Time
	}
	if completedAt.Valid {
		tx.CompletedAt = &completedAt.Time
	}

	return &tx, nil
}

func (s *Storage) SaveTransaction(ctx context.Context, tx *models.Transaction) error {
	const op = "storage.postgres.SaveTransaction"

	stmt, err := s.db.Prepare(`INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, tx.ID, tx.ItemID, tx.SellerID, tx.BuyerID, tx.BuyerName,
		tx.ItemTitle, tx.ItemPrice, tx.ItemImage, tx.Status, tx.TransactionCode,
		tx.CreatedAt, nullTime(tx.ConfirmedAt), nullTime(tx.CompletedAt),
		tx.BuyerDeleted, tx.SellerDeleted)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	const op = "storage.postgres.GetTransaction"

	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tx, nil
}

// UpdateTransaction replaces the mutable transaction columns.
func (s *Storage) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	const op = "storage.postgres.UpdateTransaction"

	stmt, err := s.db.Prepare(`UPDATE transactions SET status = $1, transaction_code = $2,
		confirmed_at = $3, completed_at = $4, buyer_deleted = $5, seller_deleted = $6
		WHERE id = $7`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, tx.Status, tx.TransactionCode,
		nullTime(tx.ConfirmedAt), nullTime(tx.CompletedAt),
		tx.BuyerDeleted, tx.SellerDeleted, tx.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListSellerTransactions hides rows the seller has soft-deleted; the
// buyer's flag is irrelevant here.
func (s *Storage) ListSellerTransactions(ctx context.Context, sellerID string) ([]models.Transaction, error) {
	const op = "storage.postgres.ListSellerTransactions"

	rows, err := s.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE seller_id = $1 AND seller_deleted = FALSE ORDER BY created_at DESC`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectTransactions(rows, op)
}

func (s *Storage) ListBuyerTransactions(ctx context.Context, buyerID string) ([]models.Transaction, error) {
	const op = "storage.postgres.ListBuyerTransactions"

	rows, err := s.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE buyer_id = $1 AND buyer_deleted = FALSE ORDER BY created_at DESC`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectTransactions(rows, op)
}

func (s *Storage) ListPendingByItem(ctx context.Context, itemID string) ([]models.Transaction, error) {
	const op = "storage.postgres.ListPendingByItem"

	rows, err := s.db.QueryContext(ctx, `SELECT `+transactionColumns+` FROM transactions
		WHERE item_id = $1 AND status = $2`, itemID, models.TransactionPending)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectTransactions(rows, op)
}

func collectTransactions(rows *sql.Rows, op string) ([]models.Transaction, error) {
	txs := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return txs, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
