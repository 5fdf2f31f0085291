package transaction

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"testing"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTxStore struct {
	txs map[string]*models.Transaction
}

func newFakeTxStore() *fakeTxStore {
	return &fakeTxStore{txs: make(map[string]*models.Transaction)}
}

func (f *fakeTxStore) SaveTransaction(_ context.Context, tx *models.Transaction) error {
	cp := *tx
	f.txs[tx.ID] = &cp
	return nil
}

func (f *fakeTxStore) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	tx, ok := f.txs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *tx
	return &cp, nil
}

func (f *fakeTxStore) UpdateTransaction(_ context.Context, tx *models.Transaction) error {
	cp := *tx
	f.txs[tx.ID] = &cp
	return nil
}

func (f *fakeTxStore) ListSellerTransactions(_ context.Context, sellerID string) ([]models.Transaction, error) {
	out := []models.Transaction{}
	for _, tx := range f.txs {
		if tx.SellerID == sellerID && !tx.SellerDeleted {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f *fakeTxStore) ListBuyerTransactions(_ context.Context, buyerID string) ([]models.Transaction, error) {
	out := []models.Transaction{}
	for _, tx := range f.txs {
		if tx.BuyerID == buyerID && !tx.BuyerDeleted {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (f *fakeTxStore) ListPendingByItem(_ context.Context, itemID string) ([]models.Transaction, error) {
	out := []models.Transaction{}
	for _, tx := range f.txs {
		if tx.ItemID == itemID && tx.Status == models.TransactionPending {
			out = append(out, *tx)
		}
	}
	return out, nil
}

type fakeCatalog struct {
	items map[string]*models.Item
}

func (f *fakeCatalog) Get(_ context.Context, id string) (*models.Item, error) {
	item, ok := f.items[id]
	if !ok || item.Status == models.ItemStatusDeleted {
		return nil, models.ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (f *fakeCatalog) MarkSold(_ context.Context, id string) error {
	item, ok := f.items[id]
	if !ok {
		return models.ErrNotFound
	}
	if item.Status == models.ItemStatusSold {
		return nil
	}
	if item.Status != models.ItemStatusActive {
		return models.ErrInvalidState
	}
	item.Status = models.ItemStatusSold
	return nil
}

type fakePurchases struct {
	recorded map[string][]*models.Item
}

func (f *fakePurchases) RecordPurchase(_ context.Context, buyerID string, item *models.Item) error {
	f.recorded[buyerID] = append(f.recorded[buyerID], item)
	return nil
}

func newTestService() (*Service, *fakeTxStore, *fakeCatalog, *fakePurchases) {
	store := newFakeTxStore()
	catalog := &fakeCatalog{items: make(map[string]*models.Item)}
	purchases := &fakePurchases{recorded: make(map[string][]*models.Item)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, catalog, purchases, logger), store, catalog, purchases
}

func listItem(id, sellerID string, price float64) *models.Item {
	return &models.Item{
		ID: id, Title: "Exam prep book", Price: price,
		Type: models.ItemTypeSell, Category: models.CategoryBooks,
		SellerID: sellerID, Status: models.ItemStatusActive,
		ImageURLs: []string{"https://img.example/" + id},
	}
}

var codePattern = regexp.MustCompile(`^\d{6}$`)

func TestFullHandshake(t *testing.T) {
	svc, _, catalog, purchases := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx, err := svc.Create(context.Background(), "i1", "buyer", "Buyer B")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, tx.Status)
	assert.Empty(t, tx.TransactionCode)
	assert.Equal(t, models.ItemStatusActive, catalog.items["i1"].Status,
		"creating a request does not reserve the item")

	confirmed, err := svc.Confirm(context.Background(), tx.ID, "seller")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionConfirmed, confirmed.Status)
	assert.Regexp(t, codePattern, confirmed.TransactionCode)
	assert.NotNil(t, confirmed.ConfirmedAt)
	assert.Equal(t, models.ItemStatusSold, catalog.items["i1"].Status,
		"confirmation reserves the item")

	completed, err := svc.Complete(context.Background(), tx.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, completed.Status)
	assert.NotNil(t, completed.CompletedAt)
	assert.Equal(t, models.ItemStatusSold, catalog.items["i1"].Status)

	require.Len(t, purchases.recorded["buyer"], 1)
	assert.Equal(t, "i1", purchases.recorded["buyer"][0].ID)
}

func TestCreateRequiresActiveItem(t *testing.T) {
	svc, _, catalog, _ := newTestService()

	_, err := svc.Create(context.Background(), "missing", "buyer", "B")
	assert.ErrorIs(t, err, models.ErrNotFound)

	sold := listItem("i1", "seller", 50)
	sold.Status = models.ItemStatusSold
	catalog.items["i1"] = sold
	_, err = svc.Create(context.Background(), "i1", "buyer", "B")
	assert.ErrorIs(t, err, models.ErrInvalidState)

	catalog.items["i2"] = listItem("i2", "seller", 50)
	_, err = svc.Create(context.Background(), "i2", "seller", "S")
	assert.ErrorIs(t, err, models.ErrValidation, "seller cannot request own item")
}

func TestConfirmTwice(t *testing.T) {
	svc, _, catalog, _ := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx, err := svc.Create(context.Background(), "i1", "buyer", "B")
	require.NoError(t, err)

	first, err := svc.Confirm(context.Background(), tx.ID, "seller")
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), tx.ID, "seller")
	assert.ErrorIs(t, err, models.ErrInvalidState)

	// exactly one code was ever generated
	reloaded, err := svc.store.GetTransaction(context.Background(), tx.ID)
	require.NoError(t, err)
	assert.Equal(t, first.TransactionCode, reloaded.TransactionCode)
}

func TestConfirmCancelsCompetingPending(t *testing.T) {
	svc, store, catalog, _ := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx1, err := svc.Create(context.Background(), "i1", "buyer-1", "B1")
	require.NoError(t, err)
	tx2, err := svc.Create(context.Background(), "i1", "buyer-2", "B2")
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), tx1.ID, "seller")
	require.NoError(t, err)

	assert.Equal(t, models.TransactionConfirmed, store.txs[tx1.ID].Status)
	assert.Equal(t, models.TransactionCancelled, store.txs[tx2.ID].Status)
}

func TestConfirmAfterItemWentOffline(t *testing.T) {
	svc, store, catalog, _ := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx, err := svc.Create(context.Background(), "i1", "buyer", "B")
	require.NoError(t, err)

	// seller takes the item offline while the request is pending
	catalog.items["i1"].Status = models.ItemStatusOffline

	_, err = svc.Confirm(context.Background(), tx.ID, "seller")
	assert.ErrorIs(t, err, models.ErrInvalidState)

	stored := store.txs[tx.ID]
	assert.Equal(t, models.TransactionPending, stored.Status,
		"a failed confirm leaves the transaction pending")
	assert.Empty(t, stored.TransactionCode)
	assert.Nil(t, stored.ConfirmedAt)
	assert.Equal(t, models.ItemStatusOffline, catalog.items["i1"].Status)

	// still pending, so the seller can cancel it
	cancelled, err := svc.Cancel(context.Background(), tx.ID, "seller")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCancelled, cancelled.Status)
}

func TestConfirmRetriesAfterRelisting(t *testing.T) {
	svc, store, catalog, _ := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx, err := svc.Create(context.Background(), "i1", "buyer", "B")
	require.NoError(t, err)

	catalog.items["i1"].Status = models.ItemStatusOffline
	_, err = svc.Confirm(context.Background(), tx.ID, "seller")
	require.ErrorIs(t, err, models.ErrInvalidState)

	catalog.items["i1"].Status = models.ItemStatusActive

	confirmed, err := svc.Confirm(context.Background(), tx.ID, "seller")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionConfirmed, confirmed.Status)
	assert.Regexp(t, codePattern, confirmed.TransactionCode)
	assert.Equal(t, models.ItemStatusSold, catalog.items["i1"].Status)
	assert.Equal(t, models.TransactionConfirmed, store.txs[tx.ID].Status)
}

func TestCancelLeavesItemActive(t *testing.T) {
	svc, _, catalog, _ := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx, err := svc.Create(context.Background(), "i1", "buyer", "B")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), tx.ID, "seller")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCancelled, cancelled.Status)
	assert.Equal(t, models.ItemStatusActive, catalog.items["i1"].Status,
		"a pending transaction never reserved the item")

	// cancel is pending-only
	_, err = svc.Cancel(context.Background(), tx.ID, "seller")
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestPartyAuthorization(t *testing.T) {
	svc, _, catalog, _ := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx, err := svc.Create(context.Background(), "i1", "buyer", "B")
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), tx.ID, "buyer")
	assert.ErrorIs(t, err, models.ErrAuthorization, "buyer cannot confirm")

	_, err = svc.Cancel(context.Background(), tx.ID, "buyer")
	assert.ErrorIs(t, err, models.ErrAuthorization, "buyer cannot cancel")

	_, err = svc.Confirm(context.Background(), tx.ID, "seller")
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), tx.ID, "seller")
	assert.ErrorIs(t, err, models.ErrAuthorization, "seller cannot complete")
}

func TestCompleteRequiresConfirmed(t *testing.T) {
	svc, _, catalog, _ := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx, err := svc.Create(context.Background(), "i1", "buyer", "B")
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), tx.ID, "buyer")
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCompleteWithDeletedItemUsesSnapshot(t *testing.T) {
	svc, _, catalog, purchases := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx, err := svc.Create(context.Background(), "i1", "buyer", "B")
	require.NoError(t, err)
	_, err = svc.Confirm(context.Background(), tx.ID, "seller")
	require.NoError(t, err)

	// item vanishes between confirm and complete
	catalog.items["i1"].Status = models.ItemStatusDeleted

	completed, err := svc.Complete(context.Background(), tx.ID, "buyer")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, completed.Status)

	require.Len(t, purchases.recorded["buyer"], 1)
	snapshot := purchases.recorded["buyer"][0]
	assert.Equal(t, "Exam prep book", snapshot.Title)
	assert.Equal(t, 50.0, snapshot.Price)
}

func TestSoftDeleteVisibilityPerParty(t *testing.T) {
	svc, _, catalog, _ := newTestService()
	catalog.items["i1"] = listItem("i1", "seller", 50)

	tx, err := svc.Create(context.Background(), "i1", "buyer", "B")
	require.NoError(t, err)

	require.NoError(t, svc.SoftDelete(context.Background(), tx.ID, "buyer"))

	buyerList, err := svc.ListForBuyer(context.Background(), "buyer")
	require.NoError(t, err)
	assert.Empty(t, buyerList, "buyer no longer sees the transaction")

	sellerList, err := svc.ListForSeller(context.Background(), "seller")
	require.NoError(t, err)
	assert.Len(t, sellerList, 1, "seller's view is unaffected")

	require.NoError(t, svc.SoftDelete(context.Background(), tx.ID, "seller"))
	sellerList, err = svc.ListForSeller(context.Background(), "seller")
	require.NoError(t, err)
	assert.Empty(t, sellerList)

	// the row itself persists
	_, err = svc.store.GetTransaction(context.Background(), tx.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SoftDelete(context.Background(), tx.ID, "stranger"), models.ErrAuthorization)
	assert.ErrorIs(t, svc.SoftDelete(context.Background(), "missing", "buyer"), models.ErrNotFound)
}
