package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AnshRaj112/patience-portal/pkg/utils"
)

// Fixtures describe demo data loaded by the seed command. Zones and bouquets
// are referenced by name from subscribers.
type Fixtures struct {
	Zones       []ZoneFixture       `yaml:"zones"`
	Bouquets    []BouquetFixture    `yaml:"bouquets"`
	Subscribers []SubscriberFixture `yaml:"subscribers"`
}

type ZoneFixture struct {
	Name     string `yaml:"name"`
	City     string `yaml:"city"`
	Quartier string `yaml:"quartier"`
}

type BouquetFixture struct {
	Name          string `yaml:"name"`
	Price         int64  `yaml:"price"`
	ChannelsCount int    `yaml:"channels_count"`
	Description   string `yaml:"description"`
	Inactive      bool   `yaml:"inactive"`
}

type SubscriberFixture struct {
	Name       string           `yaml:"name"`
	Phone      string           `yaml:"phone"`
	Address    string           `yaml:"address"`
	Email      string           `yaml:"email"`
	LineNumber string           `yaml:"line_number"`
	Zone       string           `yaml:"zone"`
	Bouquet    string           `yaml:"bouquet"`
	Payments   []PaymentFixture `yaml:"payments"`
}

type PaymentFixture struct {
	Amount int64     `yaml:"amount"`
	Months int       `yaml:"months"`
	Method string    `yaml:"method"`
	Date   time.Time `yaml:"date"`
}

// SeedResult counts the rows inserted by Seed.
type SeedResult struct {
	Zones, Bouquets, Subscribers, Payments int
}

// Seed inserts fixtures in one transaction. Existing zones, bouquets and
// subscribers (matched by name, name and phone) are reused, not duplicated.
func Seed(ctx context.Context, db *sql.DB, fx Fixtures) (SeedResult, error) {
	var res SeedResult
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin seed: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	zoneIDs := make(map[string]string, len(fx.Zones))
	for _, z := range fx.Zones {
		id, created, err := upsertByName(ctx, tx, "zones", z.Name,
			`INSERT INTO zones (name, city, quartier) VALUES ($1, $2, $3) RETURNING id`, z.Name, z.City, z.Quartier)
		if err != nil {
			return res, fmt.Errorf("seed zone %q: %w", z.Name, err)
		}
		zoneIDs[z.Name] = id
		if created {
			res.Zones++
		}
	}

	bouquetIDs := make(map[string]string, len(fx.Bouquets))
	for _, b := range fx.Bouquets {
		id, created, err := upsertByName(ctx, tx, "bouquets", b.Name,
			`INSERT INTO bouquets (name, price, channels_count, description, is_active) VALUES ($1, $2, $3, NULLIF($4, ''), $5) RETURNING id`,
			b.Name, b.Price, b.ChannelsCount, b.Description, !b.Inactive)
		if err != nil {
			return res, fmt.Errorf("seed bouquet %q: %w", b.Name, err)
		}
		bouquetIDs[b.Name] = id
		if created {
			res.Bouquets++
		}
	}

	for _, s := range fx.Subscribers {
		phone := utils.NormalizePhone(s.Phone)
		var id string
		err := tx.QueryRowContext(ctx, `SELECT id FROM subscribers WHERE phone = $1`, phone).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			err = tx.QueryRowContext(ctx, `
				INSERT INTO subscribers (name, phone, address, email, line_number, zone_id, bouquet_id)
				VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
				RETURNING id`,
				s.Name, phone, s.Address, s.Email, s.LineNumber,
				lookupID(zoneIDs, s.Zone), lookupID(bouquetIDs, s.Bouquet),
			).Scan(&id)
			if err != nil {
				return res, fmt.Errorf("seed subscriber %s: %w", phone, err)
			}
			res.Subscribers++
		case err != nil:
			return res, fmt.Errorf("seed subscriber %s: %w", phone, err)
		default:
			continue
		}

		for _, p := range s.Payments {
			months := p.Months
			if months <= 0 {
				months = 1
			}
			date := p.Date
			if date.IsZero() {
				date = time.Now()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO payments (subscriber_id, amount, months_paid, payment_method, status, payment_date, receipt_number)
				VALUES ($1, $2, $3, $4, 'completed', $5, generate_receipt_number())`,
				id, p.Amount, months, p.Method, date)
			if err != nil {
				return res, fmt.Errorf("seed payment for %s: %w", phone, err)
			}
			res.Payments++
		}
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit seed: %w", err)
	}
	return res, nil
}

func upsertByName(ctx context.Context, tx *sql.Tx, table, name, insert string, args ...any) (string, bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM `+table+` WHERE name = $1 LIMIT 1`, name).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if err != sql.ErrNoRows {
		return "", false, err
	}
	if err := tx.QueryRowContext(ctx, insert, args...).Scan(&id); err != nil {
		return "", false, err
	}
	return id, true, nil
}

func lookupID(ids map[string]string, name string) sql.NullString {
	if id, ok := ids[name]; ok && name != "" {
		return sql.NullString{String: id, Valid: true}
	}
	return sql.NullString{}
}
