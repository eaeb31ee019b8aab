package model

import "time"

// LotState is the lifecycle state of a marketplace lot.
type LotState string

const (
	LotStateActive   LotState = "active"
	LotStateFinished LotState = "finished"
)

// String returns the string representation of the lot state.
func (s LotState) String() string {
	return string(s)
}

// Lot is one item of a listing.
type Lot struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	CategoryID  int64     `json:"category_id"`
	SellerID    int64     `json:"seller_id,omitempty"`
	SellerLogin string    `json:"seller_login,omitempty"`
	Price       float64   `json:"price"`
	Currency    string    `json:"currency,omitempty"`
	BidCount    int       `json:"bid_count,omitempty"`
	State       LotState  `json:"state,omitempty"`
	Watched     bool      `json:"watched,omitempty"`
	Promoted    bool      `json:"promoted,omitempty"`
	EndsAt      time.Time `json:"ends_at,omitempty"`
}

// Page is one page of a listing as returned by the server. TotalCount and
// FirstPage are only meaningful on the first page of a stream.
type Page struct {
	Items      []Lot `json:"items"`
	TotalCount int   `json:"total_count,omitempty"`
	FirstPage  int   `json:"first_page,omitempty"`
}
