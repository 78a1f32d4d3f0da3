package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AnshRaj112/patience-portal/internal/models"
)

type SubscriberStore struct {
	db *sql.DB
}

func NewSubscriberStore(db *sql.DB) *SubscriberStore {
	return &SubscriberStore{db: db}
}

const subscriberColumns = `id, name, phone, pin_hash, pin_set_at, last_login_at, zone_id, bouquet_id, created_at, updated_at`

func scanSubscriber(row *sql.Row) (*models.Subscriber, error) {
	var (
		s                   models.Subscriber
		pinHash             sql.NullString
		pinSetAt, lastLogin sql.NullTime
		zoneID, bouquetID   sql.NullString
	)
	err := row.Scan(&s.ID, &s.Name, &s.Phone, &pinHash, &pinSetAt, &lastLogin, &zoneID, &bouquetID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	s.PINHash = nullString(pinHash)
	s.PINSetAt = nullTime(pinSetAt)
	s.LastLoginAt = nullTime(lastLogin)
	s.ZoneID = nullString(zoneID)
	s.BouquetID = nullString(bouquetID)
	return &s, nil
}

// FindByPhone looks a subscriber up by normalized phone.
func (s *SubscriberStore) FindByPhone(ctx context.Context, phone string) (*models.Subscriber, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE phone = $1`, phone)
	sub, err := scanSubscriber(row)
	if err != nil {
		return nil, fmt.Errorf("find subscriber by phone: %w", err)
	}
	return sub, nil
}

func (s *SubscriberStore) FindByID(ctx context.Context, id string) (*models.Subscriber, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriberColumns+` FROM subscribers WHERE id = $1`, id)
	sub, err := scanSubscriber(row)
	if err != nil {
		return nil, fmt.Errorf("find subscriber by id: %w", err)
	}
	return sub, nil
}

// SetPINIfUnset stores the PIN hash only when none exists yet. Two racing
// calls for the same subscriber cannot both succeed: the loser gets ErrConflict.
func (s *SubscriberStore) SetPINIfUnset(ctx context.Context, id, pinHash string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE subscribers
		SET pin_hash = $2, pin_set_at = $3, last_login_at = $3, updated_at = $3
		WHERE id = $1 AND pin_hash IS NULL`,
		id, pinHash, at)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set pin rows affected: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (s *SubscriberStore) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE subscribers SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Profile returns the subscriber with their zone and bouquet resolved.
func (s *SubscriberStore) Profile(ctx context.Context, id string) (*models.Profile, error) {
	var (
		p                                 models.Profile
		phone2, email, line               sql.NullString
		expires                           sql.NullTime
		zoneID, zoneName, zoneCity, zoneQ sql.NullString
		bqID, bqName, bqDesc              sql.NullString
		bqPrice                           sql.NullInt64
		bqChannels                        sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.phone, s.phone_secondary, s.email, s.address, s.line_number,
		       s.subscription_status, s.subscription_expires_at, s.signal_active,
		       z.id, z.name, z.city, z.quartier,
		       b.id, b.name, b.price, b.channels_count, b.description
		FROM subscribers s
		LEFT JOIN zones z ON z.id = s.zone_id
		LEFT JOIN bouquets b ON b.id = s.bouquet_id
		WHERE s.id = $1`, id).Scan(
		&p.ID, &p.Name, &p.Phone, &phone2, &email, &p.Address, &line,
		&p.SubscriptionStatus, &expires, &p.SignalActive,
		&zoneID, &zoneName, &zoneCity, &zoneQ,
		&bqID, &bqName, &bqPrice, &bqChannels, &bqDesc,
	)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", notFound(err))
	}
	p.PhoneSecondary = nullString(phone2)
	p.Email = nullString(email)
	p.LineNumber = nullString(line)
	p.SubscriptionExpiresAt = nullTime(expires)
	if zoneID.Valid {
		p.Zone = &models.ZoneSummary{ID: zoneID.String, Name: zoneName.String, City: zoneCity.String, Quartier: zoneQ.String}
	}
	if bqID.Valid {
		p.Bouquet = &models.BouquetSummary{
			ID:            bqID.String,
			Name:          bqName.String,
			Price:         bqPrice.Int64,
			ChannelsCount: int(bqChannels.Int64),
			Description:   nullString(bqDesc),
		}
	}
	return &p, nil
}

// BillingInfo returns the subscriber's current bouquet and its monthly price.
func (s *SubscriberStore) BillingInfo(ctx context.Context, id string) (*models.BillingInfo, error) {
	var (
		info      models.BillingInfo
		bouquetID sql.NullString
		price     sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, s.bouquet_id, b.price
		FROM subscribers s
		LEFT JOIN bouquets b ON b.id = s.bouquet_id
		WHERE s.id = $1`, id).Scan(&info.SubscriberID, &bouquetID, &price)
	if err != nil {
		return nil, fmt.Errorf("load billing info: %w", notFound(err))
	}
	info.BouquetID = nullString(bouquetID)
	info.Price = price.Int64
	return &info, nil
}
