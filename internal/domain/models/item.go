package models

import "time"

type ItemType string

const (
	ItemTypeSell  ItemType = "SELL"
	ItemTypeTrade ItemType = "TRADE"
	ItemTypeFree  ItemType = "FREE"
)

type Category string

const (
	CategoryBooks       Category = "BOOKS"
	CategoryElectronics Category = "ELECTRONICS"
	CategoryLifestyle   Category = "LIFESTYLE"
	CategoryClothing    Category = "CLOTHING"
	CategoryOther       Category = "OTHER"
)

type ItemStatus string

const (
	ItemStatusActive  ItemStatus = "ACTIVE"
	ItemStatusSold    ItemStatus = "SOLD"
	ItemStatusOffline ItemStatus = "OFFLINE"
	ItemStatusDeleted ItemStatus = "DELETED"
)

// MaxItemImages caps the ordered image list per listing.
const MaxItemImages = 3

type Item struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Type        ItemType   `json:"type"`
	Category    Category   `json:"category"`
	ImageURLs   []string   `json:"imageUrls"`
	SellerID    string     `json:"sellerId"`
	SellerName  string     `json:"sellerName"`
	CreatedAt   time.Time  `json:"createdAt"`
	Likes       int        `json:"likes"`
	Status      ItemStatus `json:"status"`
}

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeSell, ItemTypeTrade, ItemTypeFree:
		return true
	}
	return false
}

func (c Category) Valid() bool {
	switch c {
	case CategoryBooks, CategoryElectronics, CategoryLifestyle, CategoryClothing, CategoryOther:
		return true
	}
	return false
}

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusActive, ItemStatusSold, ItemStatusOffline, ItemStatusDeleted:
		return true
	}
	return false
}

// CanTransitionTo reports whether a seller-driven status change is allowed.
// ACTIVE and OFFLINE toggle freely, DELETED is a terminal sink (idempotent),
// and SOLD is never reachable this way: only the transaction handshake
// marks an item sold.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	if next == ItemStatusDeleted {
		return true
	}
	if s == next {
		return true
	}
	switch {
	case s == ItemStatusActive && next == ItemStatusOffline:
		return true
	case s == ItemStatusOffline && next == ItemStatusActive:
		return true
	}
	return false
}

// MarketStat is the per-category aggregation shown on the landing page.
type MarketStat struct {
	Category Category `json:"category"`
	Count    int      `json:"count"`
	AvgPrice float64  `json:"avgPrice"`
}
