package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
)

const itemColumns = "id, title, description, price, type, category, image_urls, seller_id, seller_name, created_at, likes, status"

func scanItem(row interface{ Scan(...interface{}) error }) (*models.Item, error) {
	var item models.Item
	var images string

	if err := row.Scan(&item.ID, &item.Title, &item.Description, &item.Price, &item.Type,
		&item.Category, &images, &item.SellerID, &item.SellerName, &item.CreatedAt,
		&item.Likes, &item.Status); err != nil {
		return nil, err
	}

	if err := unmarshalBlob(images, &item.ImageURLs); err != nil {
		return nil, err
	}

	return &item, nil
}

func (s *Storage) SaveItem(ctx context.Context, item *models.Item) error {
	const op = "storage.postgres.SaveItem"

	images, err := marshalBlob(item.ImageURLs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	stmt, err := s.db.Prepare(`INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, item.ID, item.Title, item.Description, item.Price,
		item.Type, item.Category, images, item.SellerID, item.SellerName,
		item.CreatedAt, item.Likes, item.Status)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) GetItem(ctx context.Context, id string) (*models.Item, error) {
	const op = "storage.postgres.GetItem"

	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id)

	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// UpdateItem is a whole-record replace; last writer wins.
func (s *Storage) UpdateItem(ctx context.Context, item *models.Item) error {
	const op = "storage.postgres.UpdateItem"

	images, err := marshalBlob(item.ImageURLs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	stmt, err := s.db.Prepare(`UPDATE items SET title = $1, description = $2, price = $3,
		type = $4, category = $5, image_urls = $6, seller_name = $7, likes = $8, status = $9
		WHERE id = $10`)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, item.Title, item.Description, item.Price, item.Type,
		item.Category, images, item.SellerName, item.Likes, item.Status, item.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UpdateItemStatus(ctx context.Context, id string, status models.ItemStatus) error {
	const op = "storage.postgres.UpdateItemStatus"

	stmt, err := s.db.Prepare("UPDATE items SET status = $1 WHERE id = $2")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Storage) UpdateItemLikes(ctx context.Context, id string, likes int) error {
	const op = "storage.postgres.UpdateItemLikes"

	stmt, err := s.db.Prepare("UPDATE items SET likes = $1 WHERE id = $2")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = stmt.ExecContext(ctx, likes, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ListMarketItems returns the public catalog view: active and sold listings,
// newest first. Offline and deleted rows never appear here.
func (s *Storage) ListMarketItems(ctx context.Context) ([]models.Item, error) {
	const op = "storage.postgres.ListMarketItems"

	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items
		WHERE status IN ($1, $2) ORDER BY created_at DESC`,
		models.ItemStatusActive, models.ItemStatusSold)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectItems(rows, op)
}

func (s *Storage) ListSellerItems(ctx context.Context, sellerID string) ([]models.Item, error) {
	const op = "storage.postgres.ListSellerItems"

	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items
		WHERE seller_id = $1 AND status != $2 ORDER BY created_at DESC`,
		sellerID, models.ItemStatusDeleted)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	return collectItems(rows, op)
}

func collectItems(rows *sql.Rows, op string) ([]models.Item, error) {
	items := []models.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

func (s *Storage) ItemStats(ctx context.Context) ([]models.MarketStat, error) {
	const op = "storage.postgres.ItemStats"

	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*), COALESCE(AVG(price), 0)
		FROM items WHERE status = $1 GROUP BY category ORDER BY category`,
		models.ItemStatusActive)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	stats := []models.MarketStat{}
	for rows.Next() {
		var st models.MarketStat
		if err := rows.Scan(&st.Category, &st.Count, &st.AvgPrice); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return stats, nil
}
