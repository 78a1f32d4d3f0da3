package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/AnshRaj112/patience-portal/internal/models"
)

type BouquetStore struct {
	db *sql.DB
}

func NewBouquetStore(db *sql.DB) *BouquetStore {
	return &BouquetStore{db: db}
}

// ListActive returns the active catalog, cheapest first.
func (s *BouquetStore) ListActive(ctx context.Context) ([]models.BouquetSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, price, channels_count, description
		FROM bouquets
		WHERE is_active = TRUE
		ORDER BY price ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list bouquets: %w", err)
	}
	defer rows.Close()

	out := make([]models.BouquetSummary, 0)
	for rows.Next() {
		var (
			b    models.BouquetSummary
			desc sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Price, &b.ChannelsCount, &desc); err != nil {
			return nil, fmt.Errorf("scan bouquet: %w", err)
		}
		b.Description = nullString(desc)
		out = append(out, b)
	}
	return out, rows.Err()
}

// ActivePrice returns the monthly price of an active bouquet.
func (s *BouquetStore) ActivePrice(ctx context.Context, id string) (int64, error) {
	var price int64
	err := s.db.QueryRowContext(ctx, `SELECT price FROM bouquets WHERE id = $1 AND is_active = TRUE`, id).Scan(&price)
	if err != nil {
		return 0, fmt.Errorf("bouquet price: %w", notFound(err))
	}
	return price, nil
}
