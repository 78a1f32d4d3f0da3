package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/AnshRaj112/patience-portal/internal/logger"
)

// ConnectPostgres opens a pooled connection and verifies it with a ping.
func ConnectPostgres(ctx context.Context, postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.L().Info("✅ Connected to PostgreSQL")
	return db, nil
}

// schema is applied in order. Every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS zones (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(120) NOT NULL,
		city VARCHAR(120) NOT NULL,
		quartier VARCHAR(120) NOT NULL,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS bouquets (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(120) NOT NULL,
		price BIGINT NOT NULL CHECK (price >= 0),
		channels_count INTEGER NOT NULL DEFAULT 0,
		description TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	// pin_hash is written once by enrollment; phone is the normalized +237 form.
	`CREATE TABLE IF NOT EXISTS subscribers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		name VARCHAR(200) NOT NULL,
		phone VARCHAR(20) NOT NULL UNIQUE,
		phone_secondary VARCHAR(20),
		email VARCHAR(255),
		address TEXT NOT NULL DEFAULT '',
		line_number VARCHAR(50),
		subscription_status VARCHAR(20) NOT NULL DEFAULT 'active'
			CHECK (subscription_status IN ('active', 'expired', 'suspended')),
		subscription_expires_at TIMESTAMPTZ,
		signal_active BOOLEAN NOT NULL DEFAULT TRUE,
		zone_id UUID REFERENCES zones(id) ON DELETE SET NULL,
		bouquet_id UUID REFERENCES bouquets(id) ON DELETE SET NULL,
		pin_hash VARCHAR(128),
		pin_set_at TIMESTAMPTZ,
		last_login_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		subscriber_id UUID NOT NULL REFERENCES subscribers(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL,
		months_paid INTEGER NOT NULL DEFAULT 1,
		payment_method VARCHAR(20) NOT NULL
			CHECK (payment_method IN ('mtn_momo', 'orange_money', 'cash')),
		status VARCHAR(20) NOT NULL DEFAULT 'completed'
			CHECK (status IN ('pending', 'completed', 'failed')),
		payment_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		receipt_number VARCHAR(30),
		transaction_id VARCHAR(100),
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS payment_requests (
		id UUID PRIMARY KEY,
		subscriber_id UUID NOT NULL REFERENCES subscribers(id) ON DELETE CASCADE,
		amount BIGINT NOT NULL,
		months INTEGER NOT NULL,
		payment_method VARCHAR(20) NOT NULL
			CHECK (payment_method IN ('mtn_momo', 'orange_money')),
		phone_number VARCHAR(20) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'processing', 'completed', 'failed')),
		external_ref VARCHAR(100),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE SEQUENCE IF NOT EXISTS ticket_number_seq`,
	`CREATE OR REPLACE FUNCTION generate_ticket_number() RETURNS TEXT AS $$
		SELECT 'TKT-' || LPAD(nextval('ticket_number_seq')::TEXT, 6, '0')
	$$ LANGUAGE SQL`,

	`CREATE SEQUENCE IF NOT EXISTS receipt_number_seq`,
	`CREATE OR REPLACE FUNCTION generate_receipt_number() RETURNS TEXT AS $$
		SELECT 'REC-' || TO_CHAR(NOW(), 'YYYYMMDD') || '-' || LPAD(nextval('receipt_number_seq')::TEXT, 5, '0')
	$$ LANGUAGE SQL`,

	`CREATE TABLE IF NOT EXISTS support_tickets (
		id UUID PRIMARY KEY,
		ticket_number VARCHAR(20) NOT NULL UNIQUE DEFAULT generate_ticket_number(),
		subscriber_id UUID REFERENCES subscribers(id) ON DELETE SET NULL,
		zone_id UUID REFERENCES zones(id) ON DELETE SET NULL,
		subject VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'open'
			CHECK (status IN ('open', 'in_progress', 'resolved', 'closed')),
		priority VARCHAR(20) NOT NULL DEFAULT 'medium'
			CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
		assigned_to UUID,
		resolution_notes TEXT,
		resolved_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_subscribers_zone_id ON subscribers(zone_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bouquets_active_price ON bouquets(is_active, price)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_subscriber_date ON payments(subscriber_id, payment_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_requests_subscriber ON payment_requests(subscriber_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_support_tickets_subscriber ON support_tickets(subscriber_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_support_tickets_status ON support_tickets(status)`,
}

// InitPostgresTables creates every table, sequence and generator the portal needs.
func InitPostgresTables(ctx context.Context, db *sql.DB) error {
	for i, query := range schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	logger.L().Info("✅ PostgreSQL tables initialized", zap.Int("statements", len(schema)))
	return nil
}
