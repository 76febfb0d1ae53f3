package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cafe-inventory/internal/model"
	"cafe-inventory/internal/repository"
	"cafe-inventory/internal/ws"
	"cafe-inventory/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(database.Options{Driver: "sqlite", DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func newTestInventory(t *testing.T) (InventoryService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	svc := NewInventoryService(db, repository.NewProductRepo(db), repository.NewTransactionRepo(db), nil, nil)
	return svc, db
}

var barista = Actor{ID: "u-1", Name: "maria"}

func coffee() ProductInput {
	return ProductInput{
		Name:        "Coffee",
		Description: "House blend",
		Category:    "Drinks",
		Price:       decimal.RequireFromString("30.00"),
		Quantity:    50,
	}
}

func TestCreateProduct_AssignsIDAndOpeningEntry(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, "u-1", p.CreatedBy)

	ledger, err := svc.ListProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)
	assert.Equal(t, model.ActionAdd, ledger[0].Action)
	assert.Equal(t, 50, ledger[0].QuantityChanged)
	assert.Equal(t, 0, ledger[0].StockBefore)
	assert.Equal(t, 50, ledger[0].StockAfter)
}

func TestCreateProduct_ZeroQuantityHasNoEntry(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	in := coffee()
	in.Quantity = 0
	p, err := svc.CreateProduct(ctx, in, barista)
	require.NoError(t, err)

	ledger, err := svc.ListProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductInput)
		field  string
	}{
		{"blank name", func(in *ProductInput) { in.Name = "   " }, "name"},
		{"missing description", func(in *ProductInput) { in.Description = "" }, "description"},
		{"missing category", func(in *ProductInput) { in.Category = "" }, "category"},
		{"negative price", func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) }, "price"},
		{"price exceeds decimal(10,2)", func(in *ProductInput) { in.Price = decimal.RequireFromString("100000000.00") }, "price"},
		{"negative quantity", func(in *ProductInput) { in.Quantity = -1 }, "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestInventory(t)
			ctx := context.Background()

			in := coffee()
			tt.mutate(&in)

			_, err := svc.CreateProduct(ctx, in, barista)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, tt.field, verr.Fields[0].Field)

			products, err := svc.ListProducts(ctx)
			require.NoError(t, err)
			assert.Empty(t, products)

			ledger, err := svc.ListTransactions(ctx)
			require.NoError(t, err)
			assert.Empty(t, ledger)
		})
	}
}

func TestCreateProduct_LedgerFailureRollsBack(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	ledger := repository.NewMockTransactionRepository(ctrl)
	ledger.EXPECT().WithTx(gomock.Any()).Return(ledger)
	ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	publisher := NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any()).Times(0)

	productRepo := repository.NewProductRepo(db)
	failing := NewInventoryService(db, productRepo, ledger, publisher, nil)

	_, err := failing.CreateProduct(ctx, coffee(), barista)
	require.ErrorIs(t, err, ErrStorage)

	products, err := productRepo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)

	entries, err := repository.NewTransactionRepo(db).FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUpdateProduct_DeductEntryOnDecrease(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	in := coffee()
	in.Quantity = 35
	updated, err := svc.UpdateProduct(ctx, p.ID, in, barista)
	require.NoError(t, err)
	assert.Equal(t, 35, updated.Quantity)

	ledger, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, ledger, 2)

	last := ledger[1]
	assert.Equal(t, model.ActionDeduct, last.Action)
	assert.Equal(t, 15, last.QuantityChanged)
	assert.Equal(t, p.ID, last.ProductID)
	assert.Equal(t, "Coffee", last.ProductName)
	assert.Equal(t, "u-1", last.CreatedBy)
	assert.Equal(t, 50, last.StockBefore)
	assert.Equal(t, 35, last.StockAfter)
}

func TestUpdateProduct_AddEntryOnIncrease(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	in := coffee()
	in.Quantity = 62
	_, err = svc.UpdateProduct(ctx, p.ID, in, barista)
	require.NoError(t, err)

	ledger, err := svc.ListProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, model.ActionAdd, ledger[1].Action)
	assert.Equal(t, 12, ledger[1].QuantityChanged)
}

func TestUpdateProduct_SameQuantityNoEntry(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	in := coffee()
	in.Name = "Espresso"
	in.Price = decimal.RequireFromString("32.50")
	updated, err := svc.UpdateProduct(ctx, p.ID, in, barista)
	require.NoError(t, err)
	assert.Equal(t, "Espresso", updated.Name)
	assert.True(t, decimal.RequireFromString("32.50").Equal(updated.Price))

	ledger, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	svc, _ := newTestInventory(t)

	_, err := svc.UpdateProduct(context.Background(), 999, coffee(), barista)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProduct_NegativeQuantityLeavesProductUnchanged(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	in := coffee()
	in.Quantity = -3
	_, err = svc.UpdateProduct(ctx, p.ID, in, barista)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Quantity)

	ledger, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

func TestUpdateProduct_LedgerFailureRollsBack(t *testing.T) {
	svc, db := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	ledger := repository.NewMockTransactionRepository(ctrl)
	ledger.EXPECT().WithTx(gomock.Any()).Return(ledger)
	ledger.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	publisher := NewMockPublisher(ctrl)
	publisher.EXPECT().Publish(gomock.Any()).Times(0)

	failing := NewInventoryService(db, repository.NewProductRepo(db), ledger, publisher, nil)

	in := coffee()
	in.Quantity = 10
	_, err = failing.UpdateProduct(ctx, p.ID, in, barista)
	require.ErrorIs(t, err, ErrStorage)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Quantity)
}

func TestAdjustStock(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	updated, err := svc.AdjustStock(ctx, p.ID, StockAdjustment{Action: model.ActionDeduct, Quantity: 8}, barista)
	require.NoError(t, err)
	assert.Equal(t, 42, updated.Quantity)

	updated, err = svc.AdjustStock(ctx, p.ID, StockAdjustment{Action: model.ActionAdd, Quantity: 3}, barista)
	require.NoError(t, err)
	assert.Equal(t, 45, updated.Quantity)

	ledger, err := svc.ListProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 3)
	assert.Equal(t, model.ActionDeduct, ledger[1].Action)
	assert.Equal(t, 8, ledger[1].QuantityChanged)
	assert.Equal(t, model.ActionAdd, ledger[2].Action)
	assert.Equal(t, 3, ledger[2].QuantityChanged)
}

func TestAdjustStock_InsufficientStock(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, p.ID, StockAdjustment{Action: model.ActionDeduct, Quantity: 51}, barista)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Fields[0].Field)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Quantity)
}

func TestAdjustStock_RejectsBadInput(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	_, err = svc.AdjustStock(ctx, p.ID, StockAdjustment{Action: "steal", Quantity: 1}, barista)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AdjustStock(ctx, p.ID, StockAdjustment{Action: model.ActionAdd, Quantity: 0}, barista)
	assert.ErrorAs(t, err, &verr)

	_, err = svc.AdjustStock(ctx, 999, StockAdjustment{Action: model.ActionAdd, Quantity: 1}, barista)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdjustStock_ConcurrentAddsAreNotLost(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	in := coffee()
	in.Quantity = 0
	p, err := svc.CreateProduct(ctx, in, barista)
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AdjustStock(ctx, p.ID, StockAdjustment{Action: model.ActionAdd, Quantity: 1}, barista)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.Quantity)

	ledger, err := svc.ListProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, workers)
}

func TestDeleteProduct_KeepsHistory(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	in := coffee()
	in.Quantity = 35
	_, err = svc.UpdateProduct(ctx, p.ID, in, barista)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID, barista))

	_, err = svc.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	ledger, err := svc.ListProductTransactions(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, ledger, 2)

	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID, barista), ErrNotFound)
}

func TestListProducts_InsertionOrder(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	for _, name := range []string{"Coffee", "Tea", "Croissant"} {
		in := coffee()
		in.Name = name
		_, err := svc.CreateProduct(ctx, in, barista)
		require.NoError(t, err)
	}

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Coffee", products[0].Name)
	assert.Equal(t, "Tea", products[1].Name)
	assert.Equal(t, "Croissant", products[2].Name)
}

func TestMutations_PublishAfterCommitAndInvalidateCache(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	publisher := NewMockPublisher(ctrl)
	cache := NewMockDashboardCache(ctrl)

	svc := NewInventoryService(db, repository.NewProductRepo(db), repository.NewTransactionRepo(db), publisher, cache)

	var actions []string
	publisher.EXPECT().Publish(gomock.Any()).Do(func(e ws.Event) {
		assert.Equal(t, ws.TypeStockUpdate, e.Type)
		assert.Equal(t, "maria", e.Actor)
		actions = append(actions, e.Action)
	}).Times(3)
	cache.EXPECT().Invalidate(gomock.Any()).Times(3)

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)
	_, err = svc.AdjustStock(ctx, p.ID, StockAdjustment{Action: model.ActionDeduct, Quantity: 1}, barista)
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, p.ID, barista))

	// Failed mutations publish nothing
	_, err = svc.UpdateProduct(ctx, p.ID, coffee(), barista)
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"product_created", "stock_adjusted", "product_deleted"}, actions)
}

func TestActor_DefaultsToSystem(t *testing.T) {
	svc, _ := newTestInventory(t)

	p, err := svc.CreateProduct(context.Background(), coffee(), Actor{})
	require.NoError(t, err)
	assert.Equal(t, "system", p.CreatedBy)
	assert.Equal(t, "system", p.UpdatedBy)
}

func TestScenario_AddThenDeductThenDelete(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, coffee(), barista)
	require.NoError(t, err)

	in := coffee()
	in.Quantity = 35
	for i := 0; i < 2; i++ {
		_, err = svc.UpdateProduct(ctx, p.ID, in, barista)
		require.NoError(t, err)
	}

	require.NoError(t, svc.DeleteProduct(ctx, p.ID, barista))

	ledger, err := svc.ListTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	for _, entry := range ledger {
		assert.Equal(t, "Coffee", entry.ProductName)
	}
	assert.Equal(t, model.ActionDeduct, ledger[1].Action)
	assert.Equal(t, 15, ledger[1].QuantityChanged)
}

func TestListProducts_RepeatableWithoutMutation(t *testing.T) {
	svc, _ := newTestInventory(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateProduct(ctx, coffee(), barista)
		require.NoError(t, err)
	}

	first, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	second, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
