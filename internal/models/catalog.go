package models

import "time"

type Zone struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	City        string    `json:"city"`
	Quartier    string    `json:"quartier"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type ZoneSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city"`
	Quartier string `json:"quartier"`
}

// Bouquet is a channel package. Prices are whole FCFA per month.
type Bouquet struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Price         int64     `json:"price"`
	ChannelsCount int       `json:"channels_count"`
	Description   *string   `json:"description"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
}

// BouquetSummary is the catalog and profile view of a bouquet.
type BouquetSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Price         int64   `json:"price"`
	ChannelsCount int     `json:"channels_count"`
	Description   *string `json:"description"`
}
