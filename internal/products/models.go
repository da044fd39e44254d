package products

import "time"

type Product struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"user_id"`
	URL          string    `json:"url"`
	Name         string    `json:"name"`
	CurrentPrice float64   `json:"current_price"`
	Currency     string    `json:"currency"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type PriceHistoryEntry struct {
	ID        int64     `json:"id"`
	ProductID string    `json:"product_id"`
	Price     float64   `json:"price"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the set of mutable fields a reconciliation pass refreshes.
type Snapshot struct {
	Name     string
	Price    float64
	Currency string
	ImageURL string
}
