package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/shared/projection"
)

var (
	_ ports.Repository  = (*Repository)(nil)
	_ ports.OutboxStore = (*Repository)(nil)
)

// Repository persists products, orders and outbox messages in PostgreSQL using GORM.
// The schema is owned by the migrations package.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Begin opens a database transaction.
func (r *Repository) Begin(ctx context.Context) (ports.Tx, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	txDB := r.db.WithContext(ctx).Begin()
	if txDB.Error != nil {
		return nil, classify("begin", txDB.Error)
	}
	return &tx{db: txDB}, nil
}

// SaveProduct inserts or replaces a product row.
func (r *Repository) SaveProduct(ctx context.Context, product *domain.Product) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if product == nil {
		return errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return err
	}
	record := toProductRecord(product)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":                record.Name,
				"price":               record.Price,
				"stock_quantity":      record.StockQuantity,
				"low_stock_threshold": record.LowStockThreshold,
				"updated_at":          gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error
	return classify("save product", err)
}

// GetProduct fetches the committed product.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	return findProduct(r.db.WithContext(ctx), id)
}

// ListLowStock returns products at or below their threshold.
func (r *Repository) ListLowStock(ctx context.Context) ([]*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var records []productRecord
	if err := r.db.WithContext(ctx).
		Where("stock_quantity <= low_stock_threshold").
		Order("id").
		Find(&records).Error; err != nil {
		return nil, classify("list low stock", err)
	}
	products := make([]*domain.Product, 0, len(records))
	for i := range records {
		products = append(products, records[i].toDomain())
	}
	return products, nil
}

// GetOrder loads a committed order with its line items.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*projection.Projection[*domain.Order], error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	order, err := findOrder(r.db.WithContext(ctx), false, &record, "id = ?", id)
	if err != nil {
		return nil, err
	}
	return projection.New(order, record.CreatedAt, record.UpdatedAt), nil
}

// FetchPending returns unpublished outbox messages oldest first.
func (r *Repository) FetchPending(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Where("published_at IS NULL").Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var records []outboxRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, classify("fetch outbox", err)
	}
	out := make([]ports.OutboxMessage, 0, len(records))
	for i := range records {
		out = append(out, records[i].toPort())
	}
	return out, nil
}

// MarkPublished stamps the outbox row as delivered.
func (r *Repository) MarkPublished(ctx context.Context, id int64) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&outboxRecord{}).
		Where("id = ?", id).
		Update("published_at", time.Now().UTC())
	if result.Error != nil {
		return classify("mark published", result.Error)
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres sales repository not configured")
	}
	return nil
}

func findProduct(db *gorm.DB, id int64) (*domain.Product, error) {
	var record productRecord
	if err := db.First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &domain.ProductNotFoundError{ProductID: id}
		}
		return nil, classify("get product", err)
	}
	return record.toDomain(), nil
}

// findOrder expects db to be a fresh session; lock adds FOR UPDATE to the order row read.
func findOrder(db *gorm.DB, lock bool, record *orderRecord, query string, arg any) (*domain.Order, error) {
	q := db
	if lock {
		q = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, classify("get order", err)
	}
	lines, err := loadLines(db, []int64{record.ID})
	if err != nil {
		return nil, err
	}
	return record.toDomain(lines[record.ID]), nil
}

// loadLines fetches line items for several orders in one round trip, grouped by order.
func loadLines(db *gorm.DB, orderIDs []int64) (map[int64][]lineItemRecord, error) {
	var records []lineItemRecord
	if err := db.
		Where("order_id = ANY(?)", pq.Int64Array(orderIDs)).
		Order("order_id, id").
		Find(&records).Error; err != nil {
		return nil, classify("load line items", err)
	}
	grouped := make(map[int64][]lineItemRecord, len(orderIDs))
	for _, rec := range records {
		grouped[rec.OrderID] = append(grouped[rec.OrderID], rec)
	}
	return grouped, nil
}
