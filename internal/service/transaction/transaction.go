// Package transaction implements the escrow-style handshake between buyer
// and seller: a buyer requests an item, the seller confirms with a
// generated pickup code, and the buyer completes after handoff.
//
// State machine: PENDING -> CONFIRMED -> COMPLETED, or PENDING ->
// CANCELLED (seller only). Confirming reserves the item (marks it sold)
// and cancels every competing pending request for the same item.
package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/oklog/ulid/v2"
)

type TransactionStore interface {
	SaveTransaction(ctx context.Context, tx *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, tx *models.Transaction) error
	ListSellerTransactions(ctx context.Context, sellerID string) ([]models.Transaction, error)
	ListBuyerTransactions(ctx context.Context, buyerID string) ([]models.Transaction, error)
	ListPendingByItem(ctx context.Context, itemID string) ([]models.Transaction, error)
}

// Catalog is the slice of the item catalog the state machine needs:
// reading an item at request time and reserving it at confirmation.
type Catalog interface {
	Get(ctx context.Context, id string) (*models.Item, error)
	MarkSold(ctx context.Context, id string) error
}

// Purchases appends to the buyer's purchase history on completion.
type Purchases interface {
	RecordPurchase(ctx context.Context, buyerID string, item *models.Item) error
}

type Service struct {
	store     TransactionStore
	catalog   Catalog
	purchases Purchases
	logger    *slog.Logger
}

func New(store TransactionStore, catalog Catalog, purchases Purchases, logger *slog.Logger) *Service {
	return &Service{store: store, catalog: catalog, purchases: purchases, logger: logger}
}

// Create opens a PENDING transaction for an active item. The item status is
// untouched until the seller confirms. Duplicate pending requests from the
// same buyer are not deduplicated here; confirmation resolves the race.
func (s *Service) Create(ctx context.Context, itemID, buyerID, buyerName string) (*models.Transaction, error) {
	item, err := s.catalog.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SellerID == buyerID {
		return nil, fmt.Errorf("own item cannot be requested: %w", models.ErrValidation)
	}
	if item.Status != models.ItemStatusActive {
		return nil, fmt.Errorf("item %s is %s: %w", itemID, item.Status, models.ErrInvalidState)
	}

	tx := &models.Transaction{
		ID:        newTransactionID(),
		ItemID:    item.ID,
		SellerID:  item.SellerID,
		BuyerID:   buyerID,
		BuyerName: buyerName,
		ItemTitle: item.Title,
		ItemPrice: item.Price,
		Status:    models.TransactionPending,
		CreatedAt: time.Now(),
	}
	if len(item.ImageURLs) > 0 {
		tx.ItemImage = item.ImageURLs[0]
	}

	if err := s.store.SaveTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction created",
		slog.String("transaction", tx.ID),
		slog.String("item", itemID),
		slog.String("buyer", buyerID),
	)

	return tx, nil
}

// Confirm moves a pending transaction to CONFIRMED: the seller commits,
// a pickup code is generated and the item is reserved (marked sold) so no
// other buyer can be confirmed. Competing pending requests for the same
// item are cancelled in the same step.
func (s *Service) Confirm(ctx context.Context, txID, requesterID string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.SellerID != requesterID {
		return nil, fmt.Errorf("only the seller confirms: %w", models.ErrAuthorization)
	}
	if !tx.IsPending() {
		return nil, fmt.Errorf("transaction is %s, not PENDING: %w", tx.Status, models.ErrInvalidState)
	}

	// Reserve the item first. If it is no longer ACTIVE (seller took it
	// offline or deleted it while the request was pending) the confirm
	// fails here and the transaction stays PENDING, so the seller can
	// still cancel it or retry once the item is relisted.
	if err := s.catalog.MarkSold(ctx, tx.ItemID); err != nil {
		return nil, err
	}

	now := time.Now()
	tx.Status = models.TransactionConfirmed
	tx.TransactionCode = newTransactionCode()
	tx.ConfirmedAt = &now

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	s.cancelCompeting(ctx, tx)

	s.logger.Info("Transaction confirmed",
		slog.String("transaction", tx.ID),
		slog.String("item", tx.ItemID),
	)

	return tx, nil
}

// cancelCompeting closes every other pending request for the same item once
// one of them is confirmed. Best effort: a failed cancel leaves a pending
// row that can no longer be confirmed (the item is already sold).
func (s *Service) cancelCompeting(ctx context.Context, confirmed *models.Transaction) {
	pending, err := s.store.ListPendingByItem(ctx, confirmed.ItemID)
	if err != nil {
		s.logger.Warn("Failed to list competing transactions", "error", err)
		return
	}

	for i := range pending {
		other := &pending[i]
		if other.ID == confirmed.ID {
			continue
		}
		other.Status = models.TransactionCancelled
		if err := s.store.UpdateTransaction(ctx, other); err != nil {
			s.logger.Warn("Failed to cancel competing transaction",
				slog.String("transaction", other.ID), "error", err)
		}
	}
}

// Cancel closes a pending transaction. Seller action only; the item was
// never reserved, so its status is untouched.
func (s *Service) Cancel(ctx context.Context, txID, requesterID string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.SellerID != requesterID {
		return nil, fmt.Errorf("only the seller cancels: %w", models.ErrAuthorization)
	}
	if !tx.IsPending() {
		return nil, fmt.Errorf("transaction is %s, not PENDING: %w", tx.Status, models.ErrInvalidState)
	}

	tx.Status = models.TransactionCancelled

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	return tx, nil
}

// Complete is the buyer's receipt acknowledgement: CONFIRMED -> COMPLETED,
// re-affirm the item as sold and freeze a snapshot into the buyer's
// purchase history. If the item row is gone, the transaction's own
// snapshot fields stand in.
func (s *Service) Complete(ctx context.Context, txID, requesterID string) (*models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, err
	}
	if tx.BuyerID != requesterID {
		return nil, fmt.Errorf("only the buyer completes: %w", models.ErrAuthorization)
	}
	if !tx.IsConfirmed() {
		return nil, fmt.Errorf("transaction is %s, not CONFIRMED: %w", tx.Status, models.ErrInvalidState)
	}

	now := time.Now()
	tx.Status = models.TransactionCompleted
	tx.CompletedAt = &now

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return nil, err
	}

	item, err := s.catalog.Get(ctx, tx.ItemID)
	if err != nil {
		item = s.snapshotItem(tx)
	} else if item.Status != models.ItemStatusSold {
		if err := s.catalog.MarkSold(ctx, tx.ItemID); err != nil {
			s.logger.Warn("Failed to re-affirm sold status",
				slog.String("item", tx.ItemID), "error", err)
		}
	}

	if err := s.purchases.RecordPurchase(ctx, tx.BuyerID, item); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction completed",
		slog.String("transaction", tx.ID),
		slog.String("item", tx.ItemID),
	)

	return tx, nil
}

// snapshotItem rebuilds a displayable item from the transaction's
// denormalized fields when the catalog row has been deleted.
func (s *Service) snapshotItem(tx *models.Transaction) *models.Item {
	item := &models.Item{
		ID:       tx.ItemID,
		Title:    tx.ItemTitle,
		Price:    tx.ItemPrice,
		SellerID: tx.SellerID,
		Status:   models.ItemStatusSold,
	}
	if tx.ItemImage != "" {
		item.ImageURLs = []string{tx.ItemImage}
	}
	return item
}

// SoftDelete hides the transaction from the requesting party's list. The
// row persists until both parties have deleted it; the other party's view
// is unaffected.
func (s *Service) SoftDelete(ctx context.Context, txID, requesterID string) error {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return err
	}

	switch requesterID {
	case tx.BuyerID:
		tx.BuyerDeleted = true
	case tx.SellerID:
		tx.SellerDeleted = true
	default:
		return fmt.Errorf("requester is not a party: %w", models.ErrAuthorization)
	}

	return s.store.UpdateTransaction(ctx, tx)
}

func (s *Service) ListForSeller(ctx context.Context, sellerID string) ([]models.Transaction, error) {
	return s.store.ListSellerTransactions(ctx, sellerID)
}

func (s *Service) ListForBuyer(ctx context.Context, buyerID string) ([]models.Transaction, error) {
	return s.store.ListBuyerTransactions(ctx, buyerID)
}

func newTransactionID() string {
	return ulid.Make().String()
}

// newTransactionCode returns the 6-digit pickup code exchanged offline at
// handoff. Uniform per confirmation; global uniqueness is not needed at
// campus scale.
func newTransactionCode() string {
	return fmt.Sprintf("%06d", rand.Intn(1000000))
}
