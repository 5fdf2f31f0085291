package models

import "time"

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionConfirmed TransactionStatus = "CONFIRMED"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionCancelled TransactionStatus = "CANCELLED"
)

// Transaction is the handshake record for one buyer acquiring one item.
// ItemTitle/ItemPrice/ItemImage are snapshots taken at creation so the
// record still renders after the item row is soft-deleted.
type Transaction struct {
	ID              string            `json:"id"`
	ItemID          string            `json:"itemId"`
	SellerID        string            `json:"sellerId"`
	BuyerID         string            `json:"buyerId"`
	BuyerName       string            `json:"buyerName"`
	ItemTitle       string            `json:"itemTitle"`
	ItemPrice       float64           `json:"itemPrice"`
	ItemImage       string            `json:"itemImage"`
	Status          TransactionStatus `json:"status"`
	TransactionCode string            `json:"transactionCode,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	ConfirmedAt     *time.Time        `json:"confirmedAt,omitempty"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`
	BuyerDeleted    bool              `json:"-"`
	SellerDeleted   bool              `json:"-"`
}

func (t *Transaction) IsPending() bool {
	return t.Status == TransactionPending
}

func (t *Transaction) IsConfirmed() bool {
	return t.Status == TransactionConfirmed
}

func (t *Transaction) IsCompleted() bool {
	return t.Status == TransactionCompleted
}

func (t *Transaction) IsCancelled() bool {
	return t.Status == TransactionCancelled
}

// Party reports whether the given user takes part in the transaction.
func (t *Transaction) Party(userID string) bool {
	return t.SellerID == userID || t.BuyerID == userID
}
