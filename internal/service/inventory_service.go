package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cafe-inventory/internal/metrics"
	"cafe-inventory/internal/model"
	"cafe-inventory/internal/repository"
	"cafe-inventory/internal/ws"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryService interface {
	CreateProduct(ctx context.Context, in ProductInput, actor Actor) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, in ProductInput, actor Actor) (*model.Product, error)
	AdjustStock(ctx context.Context, id uint, adj StockAdjustment, actor Actor) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint, actor Actor) error
	ListTransactions(ctx context.Context) ([]model.StockTransaction, error)
	ListProductTransactions(ctx context.Context, productID uint) ([]model.StockTransaction, error)
}

// ProductInput carries every mutable product field. Updates replace all of them.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Description string          `json:"description" validate:"required"`
	Category    string          `json:"category" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price" validate:"gte=0,lte=99999999.99"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
}

func (in *ProductInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Price = in.Price.Round(2)
}

func (in *ProductInput) apply(p *model.Product) {
	p.Name = in.Name
	p.Description = in.Description
	p.Category = in.Category
	p.Price = in.Price
	p.Quantity = in.Quantity
}

// StockAdjustment adds or deducts a number of units without touching other fields.
type StockAdjustment struct {
	Action   model.StockAction `json:"action" validate:"required,oneof=add deduct"`
	Quantity int               `json:"quantity" validate:"gt=0"`
}

// Actor identifies who performed a mutation; the zero value is the system.
type Actor struct {
	ID   string
	Name string
}

func (a Actor) id() string {
	if a.ID == "" {
		return "system"
	}
	return a.ID
}

func (a Actor) name() string {
	if a.Name == "" {
		return "system"
	}
	return a.Name
}

type inventoryService struct {
	db              *gorm.DB
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	publisher       Publisher
	cache           DashboardCache
	now             func() time.Time
}

func NewInventoryService(db *gorm.DB, pRepo repository.ProductRepository, tRepo repository.TransactionRepository, publisher Publisher, cache DashboardCache) InventoryService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if cache == nil {
		cache = noopCache{}
	}
	return &inventoryService{
		db:              db,
		productRepo:     pRepo,
		transactionRepo: tRepo,
		publisher:       publisher,
		cache:           cache,
		now:             time.Now,
	}
}

// inTx runs fn with repositories bound to one database transaction. Any error
// rolls back both the catalog and the ledger.
func (s *inventoryService) inTx(ctx context.Context, fn func(products repository.ProductRepository, ledger repository.TransactionRepository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(s.productRepo.WithTx(tx), s.transactionRepo.WithTx(tx))
	})
}

// committed runs the side effects of a successful mutation.
func (s *inventoryService) committed(ctx context.Context, entry *model.StockTransaction, event ws.Event) {
	if entry != nil {
		metrics.StockTransactionsTotal.WithLabelValues(string(entry.Action)).Inc()
	}
	s.cache.Invalidate(ctx)
	s.publisher.Publish(event)
}

func (s *inventoryService) CreateProduct(ctx context.Context, in ProductInput, actor Actor) (*model.Product, error) {
	// 1. Validate input
	in.normalize()
	if err := validate(&in); err != nil {
		return nil, err
	}

	product := &model.Product{}
	in.apply(product)
	product.CreatedBy = actor.id()
	product.UpdatedBy = actor.id()

	// 2. Insert product and its opening stock entry together
	var entry *model.StockTransaction
	err := s.inTx(ctx, func(products repository.ProductRepository, ledger repository.TransactionRepository) error {
		if err := products.Create(ctx, product); err != nil {
			return err
		}

		entry = model.NewStockTransaction(product, 0, product.Quantity, actor.id(), s.now())
		if entry == nil {
			return nil
		}
		if err := ledger.Append(ctx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("create product", err)
	}

	// 3. Notify
	slog.Info("product created", "id", product.ID, "name", product.Name, "quantity", product.Quantity, "actor", actor.id())
	s.committed(ctx, entry, ws.Event{
		Type:    ws.TypeStockUpdate,
		Action:  "product_created",
		Data:    product,
		Actor:   actor.name(),
		Message: fmt.Sprintf("%s created product '%s'", actor.name(), product.Name),
	})

	return product, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, id uint, in ProductInput, actor Actor) (*model.Product, error) {
	in.normalize()
	if err := validate(&in); err != nil {
		return nil, err
	}

	var (
		updated  *model.Product
		entry    *model.StockTransaction
		oldStock int
	)

	err := s.inTx(ctx, func(products repository.ProductRepository, ledger repository.TransactionRepository) error {
		// 1. Find & lock product
		existing, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// 2. Replace every field, last write wins
		oldStock = existing.Quantity
		in.apply(existing)
		existing.UpdatedBy = actor.id()

		if err := products.Save(ctx, existing); err != nil {
			return err
		}

		// 3. Record the quantity change, if any
		entry = model.NewStockTransaction(existing, oldStock, existing.Quantity, actor.id(), s.now())
		if entry != nil {
			if err := ledger.Append(ctx, entry); err != nil {
				return fmt.Errorf("append ledger entry: %w", err)
			}
		}

		updated = existing
		return nil
	})
	if err != nil {
		return nil, storageErr("update product", err)
	}

	slog.Info("product updated", "id", updated.ID, "old_stock", oldStock, "new_stock", updated.Quantity, "actor", actor.id())
	s.committed(ctx, entry, ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "product_updated",
		Data: map[string]interface{}{
			"product":   updated,
			"old_stock": oldStock,
			"new_stock": updated.Quantity,
		},
		Actor:   actor.name(),
		Message: fmt.Sprintf("%s updated product '%s'", actor.name(), updated.Name),
	})

	return updated, nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, id uint, adj StockAdjustment, actor Actor) (*model.Product, error) {
	if err := validate(&adj); err != nil {
		return nil, err
	}

	var (
		updated *model.Product
		entry   *model.StockTransaction
	)

	err := s.inTx(ctx, func(products repository.ProductRepository, ledger repository.TransactionRepository) error {
		product, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// Compute new stock
		before := product.Quantity
		after := before + adj.Quantity
		if adj.Action == model.ActionDeduct {
			if adj.Quantity > before {
				return newValidationError("quantity", fmt.Sprintf("insufficient stock remaining: %d available", before))
			}
			after = before - adj.Quantity
		}

		product.Quantity = after
		product.UpdatedBy = actor.id()
		if err := products.Save(ctx, product); err != nil {
			return err
		}

		entry = model.NewStockTransaction(product, before, after, actor.id(), s.now())
		if err := ledger.Append(ctx, entry); err != nil {
			return fmt.Errorf("append ledger entry: %w", err)
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, storageErr("adjust stock", err)
	}

	verb := "added"
	if adj.Action == model.ActionDeduct {
		verb = "removed"
	}

	s.committed(ctx, entry, ws.Event{
		Type:   ws.TypeStockUpdate,
		Action: "stock_adjusted",
		Data: map[string]interface{}{
			"product":     updated,
			"transaction": entry,
		},
		Actor:   actor.name(),
		Message: fmt.Sprintf("%s %s %d units of '%s'", actor.name(), verb, adj.Quantity, updated.Name),
	})

	return updated, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, id uint, actor Actor) error {
	var deleted *model.Product

	err := s.inTx(ctx, func(products repository.ProductRepository, _ repository.TransactionRepository) error {
		product, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}

		found, err := products.Delete(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}

		deleted = product
		return nil
	})
	if err != nil {
		return storageErr("delete product", err)
	}

	slog.Info("product deleted", "id", id, "name", deleted.Name, "actor", actor.id())
	s.committed(ctx, nil, ws.Event{
		Type:    ws.TypeStockUpdate,
		Action:  "product_deleted",
		Data:    map[string]interface{}{"id": id, "name": deleted.Name},
		Actor:   actor.name(),
		Message: fmt.Sprintf("%s deleted product '%s'", actor.name(), deleted.Name),
	})

	return nil
}

func (s *inventoryService) ListProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.productRepo.FindAll(ctx)
	if err != nil {
		return nil, storageErr("list products", err)
	}
	return products, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storageErr("get product", err)
	}
	return product, nil
}

func (s *inventoryService) ListTransactions(ctx context.Context) ([]model.StockTransaction, error) {
	transactions, err := s.transactionRepo.FindAll(ctx)
	if err != nil {
		return nil, storageErr("list transactions", err)
	}
	return transactions, nil
}

// ListProductTransactions returns the history of one product id. It works after
// the product is deleted since the ledger only holds a weak reference.
func (s *inventoryService) ListProductTransactions(ctx context.Context, productID uint) ([]model.StockTransaction, error) {
	transactions, err := s.transactionRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, storageErr("list product transactions", err)
	}
	return transactions, nil
}
