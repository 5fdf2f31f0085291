// Package catalog implements the item catalog: listing, creation, owner
// updates, the status lifecycle, and like counters.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/oklog/ulid/v2"
)

type ItemStore interface {
	SaveItem(ctx context.Context, item *models.Item) error
	GetItem(ctx context.Context, id string) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	UpdateItemStatus(ctx context.Context, id string, status models.ItemStatus) error
	UpdateItemLikes(ctx context.Context, id string, likes int) error
	ListMarketItems(ctx context.Context) ([]models.Item, error)
	ListSellerItems(ctx context.Context, sellerID string) ([]models.Item, error)
	ItemStats(ctx context.Context) ([]models.MarketStat, error)
}

// ListingCache holds the public catalog response for a short TTL. Misses
// and errors fall through to the store.
type ListingCache interface {
	GetListing(ctx context.Context) ([]models.Item, bool)
	SetListing(ctx context.Context, items []models.Item) error
	Invalidate(ctx context.Context) error
}

type Service struct {
	store  ItemStore
	cache  ListingCache
	logger *slog.Logger
}

func New(store ItemStore, cache ListingCache, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

// ListActive returns the market view: active and sold items, newest first.
func (s *Service) ListActive(ctx context.Context) ([]models.Item, error) {
	if items, ok := s.cache.GetListing(ctx); ok {
		return items, nil
	}

	items, err := s.store.ListMarketItems(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetListing(ctx, items); err != nil {
		s.logger.Warn("Failed to populate listing cache", "error", err)
	}

	return items, nil
}

func (s *Service) ListBySeller(ctx context.Context, sellerID string) ([]models.Item, error) {
	return s.store.ListSellerItems(ctx, sellerID)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Item, error) {
	return s.store.GetItem(ctx, id)
}

func (s *Service) Stats(ctx context.Context) ([]models.MarketStat, error) {
	return s.store.ItemStats(ctx)
}

// Create validates a new listing, fills server-assigned fields and stores
// it. Trade and giveaway listings carry a forced zero price.
func (s *Service) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	if item.Title == "" {
		return nil, fmt.Errorf("title is required: %w", models.ErrValidation)
	}
	if !item.Type.Valid() {
		return nil, fmt.Errorf("unknown item type %q: %w", item.Type, models.ErrValidation)
	}
	if !item.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q: %w", item.Category, models.ErrValidation)
	}
	if item.Price < 0 {
		return nil, fmt.Errorf("negative price: %w", models.ErrValidation)
	}
	if len(item.ImageURLs) > models.MaxItemImages {
		return nil, fmt.Errorf("at most %d images: %w", models.MaxItemImages, models.ErrValidation)
	}

	if item.Type != models.ItemTypeSell {
		item.Price = 0
	}
	if item.ID == "" {
		item.ID = newItemID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	item.Likes = 0
	item.Status = models.ItemStatusActive

	if err := s.store.SaveItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	return item, nil
}

// Update is a full field replace, allowed only for the owner. Seller id,
// seller name and creation time are immutable; a status change embedded in
// the update obeys the same transition rules as SetStatus.
func (s *Service) Update(ctx context.Context, callerID string, item *models.Item) (*models.Item, error) {
	existing, err := s.store.GetItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	if existing.SellerID != callerID {
		return nil, fmt.Errorf("item %s not owned by caller: %w", item.ID, models.ErrAuthorization)
	}

	if !item.Type.Valid() {
		return nil, fmt.Errorf("unknown item type %q: %w", item.Type, models.ErrValidation)
	}
	if !item.Category.Valid() {
		return nil, fmt.Errorf("unknown category %q: %w", item.Category, models.ErrValidation)
	}
	if item.Price < 0 {
		return nil, fmt.Errorf("negative price: %w", models.ErrValidation)
	}
	if len(item.ImageURLs) > models.MaxItemImages {
		return nil, fmt.Errorf("at most %d images: %w", models.MaxItemImages, models.ErrValidation)
	}
	if item.Status == "" {
		item.Status = existing.Status
	}
	if item.Status != existing.Status {
		if err := s.checkTransition(existing.Status, item.Status); err != nil {
			return nil, err
		}
	}

	if item.Type != models.ItemTypeSell {
		item.Price = 0
	}
	item.SellerID = existing.SellerID
	item.SellerName = existing.SellerName
	item.CreatedAt = existing.CreatedAt
	item.Likes = existing.Likes

	if err := s.store.UpdateItem(ctx, item); err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	return item, nil
}

// SetStatus performs a seller-driven status transition. Marking an item
// sold is reserved for the transaction handshake and rejected here.
func (s *Service) SetStatus(ctx context.Context, callerID, id string, status models.ItemStatus) error {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item.SellerID != callerID {
		return fmt.Errorf("item %s not owned by caller: %w", id, models.ErrAuthorization)
	}

	if err := s.checkTransition(item.Status, status); err != nil {
		return err
	}

	if err := s.store.UpdateItemStatus(ctx, id, status); err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

func (s *Service) checkTransition(from, to models.ItemStatus) error {
	if !to.Valid() {
		return fmt.Errorf("unknown status %q: %w", to, models.ErrValidation)
	}
	if to == models.ItemStatusSold {
		return fmt.Errorf("%s -> %s is transaction-driven: %w", from, to, models.ErrInvalidState)
	}
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%s -> %s: %w", from, to, models.ErrInvalidState)
	}
	return nil
}

// SoftDelete marks the item deleted; the row stays so historical
// transaction records keep rendering. Idempotent.
func (s *Service) SoftDelete(ctx context.Context, callerID, id string) error {
	return s.SetStatus(ctx, callerID, id, models.ItemStatusDeleted)
}

// MarkSold reserves the item for a confirmed transaction. Only the
// transaction state machine calls this; idempotent if already sold.
func (s *Service) MarkSold(ctx context.Context, id string) error {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item.Status == models.ItemStatusSold {
		return nil
	}
	if item.Status != models.ItemStatusActive {
		return fmt.Errorf("%s -> SOLD: %w", item.Status, models.ErrInvalidState)
	}

	if err := s.store.UpdateItemStatus(ctx, id, models.ItemStatusSold); err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

func (s *Service) IncrementLikes(ctx context.Context, id string) error {
	return s.adjustLikes(ctx, id, 1)
}

func (s *Service) DecrementLikes(ctx context.Context, id string) error {
	return s.adjustLikes(ctx, id, -1)
}

// SetLikes overwrites the like counter, clamped at zero.
func (s *Service) SetLikes(ctx context.Context, id string, likes int) error {
	if likes < 0 {
		likes = 0
	}

	if _, err := s.store.GetItem(ctx, id); err != nil {
		return err
	}

	if err := s.store.UpdateItemLikes(ctx, id, likes); err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

func (s *Service) adjustLikes(ctx context.Context, id string, delta int) error {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return err
	}

	likes := item.Likes + delta
	if likes < 0 {
		likes = 0
	}

	if err := s.store.UpdateItemLikes(ctx, id, likes); err != nil {
		return err
	}

	s.invalidate(ctx)

	return nil
}

// invalidate drops the cached listing after any write. Best effort: a
// failed invalidation is logged, not surfaced, since the TTL bounds the
// staleness window anyway.
func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("Failed to invalidate listing cache", "error", err)
	}
}

func newItemID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Now(), entropy).String()
}
