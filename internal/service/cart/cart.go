// Package cart manages per-user cart entries, the like list and purchase
// history. Cart entries are item snapshots; SyncCartWithCatalog refreshes
// them from the live catalog without creating new mutations.
package cart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/google/uuid"
)

type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

// LikeCounter is the catalog-side half of a like toggle.
type LikeCounter interface {
	IncrementLikes(ctx context.Context, id string) error
	DecrementLikes(ctx context.Context, id string) error
}

type Manager struct {
	users  UserStore
	counts LikeCounter
	logger *slog.Logger
}

func New(users UserStore, counts LikeCounter, logger *slog.Logger) *Manager {
	return &Manager{users: users, counts: counts, logger: logger}
}

// AddToCart appends a snapshot of the item with a fresh cart entry id.
// Self-purchase, duplicates (by item id) and sold items are rejected.
func (m *Manager) AddToCart(ctx context.Context, user *models.User, item *models.Item) error {
	if item.SellerID == user.ID {
		return fmt.Errorf("own item cannot be added to cart: %w", models.ErrValidation)
	}
	if user.InCart(item.ID) {
		return fmt.Errorf("item %s already in cart: %w", item.ID, models.ErrValidation)
	}
	if item.Status == models.ItemStatusSold {
		return fmt.Errorf("item %s is sold: %w", item.ID, models.ErrValidation)
	}

	user.Cart = append(user.Cart, models.CartItem{Item: *item, CartID: uuid.NewString()})

	return m.users.UpdateUser(ctx, user)
}

// RemoveFromCart drops the entry with the given cart id. Removing an
// absent entry is a no-op.
func (m *Manager) RemoveFromCart(ctx context.Context, user *models.User, cartID string) error {
	kept := user.Cart[:0]
	for _, entry := range user.Cart {
		if entry.CartID != cartID {
			kept = append(kept, entry)
		}
	}
	user.Cart = kept

	return m.users.UpdateUser(ctx, user)
}

// ToggleLike flips the item in the user's like list and nudges the catalog
// counter to match. The two writes are separate; the counter update is
// best-effort and each side is idempotent on retry.
func (m *Manager) ToggleLike(ctx context.Context, user *models.User, item *models.Item) (liked bool, err error) {
	if user.LikesItem(item.ID) {
		kept := user.Likes[:0]
		for _, id := range user.Likes {
			if id != item.ID {
				kept = append(kept, id)
			}
		}
		user.Likes = kept
		liked = false
	} else {
		user.Likes = append(user.Likes, item.ID)
		liked = true
	}

	if err := m.users.UpdateUser(ctx, user); err != nil {
		return false, err
	}

	if liked {
		err = m.counts.IncrementLikes(ctx, item.ID)
	} else {
		err = m.counts.DecrementLikes(ctx, item.ID)
	}
	if err != nil {
		m.logger.Warn("Like counter update failed",
			slog.String("item", item.ID), "error", err)
	}

	return liked, nil
}

// SyncCartWithCatalog refreshes cart snapshots from current catalog state
// by item id. Cart entry ids survive; entries whose item vanished keep
// their last-known snapshot.
func (m *Manager) SyncCartWithCatalog(user *models.User, items []models.Item) {
	byID := make(map[string]models.Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	for i, entry := range user.Cart {
		if current, ok := byID[entry.Item.ID]; ok {
			user.Cart[i] = models.CartItem{Item: current, CartID: entry.CartID}
		}
	}
}

// RecordPurchase freezes the item into the buyer's purchase history. Called
// only by the transaction state machine on completion.
func (m *Manager) RecordPurchase(ctx context.Context, buyerID string, item *models.Item) error {
	user, err := m.users.GetUserByID(ctx, buyerID)
	if err != nil {
		return err
	}

	user.PurchaseHistory = append(user.PurchaseHistory,
		models.CartItem{Item: *item, CartID: uuid.NewString()})

	return m.users.UpdateUser(ctx, user)
}
