package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
// Updates are conditioned on the stored version so concurrent transitions cannot both commit.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&orderRecord{})
	}
	return repo
}

// orderRecord maps the order aggregate to a relational table.
type orderRecord struct {
	ID           string          `gorm:"primaryKey;column:id;size:64"`
	ListingID    string          `gorm:"column:listing_id;size:64;index"`
	BuyerID      string          `gorm:"column:buyer_id;size:64;index:idx_orders_buyer_status"`
	SellerID     string          `gorm:"column:seller_id;size:64;index:idx_orders_seller_status"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(12,2)"`
	Status       string          `gorm:"column:status;type:varchar(32);index:idx_orders_buyer_status;index:idx_orders_seller_status"`
	Notes        string          `gorm:"column:notes;type:text"`
	DeliveryDate time.Time       `gorm:"column:delivery_date"`
	CompletedAt  *time.Time      `gorm:"column:completed_at"`
	Version      int64           `gorm:"column:version;not null;default:1"`
	CreatedAt    time.Time       `gorm:"column:created_at;index"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

// Create inserts a new order at version 1.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(order)
	record.Version = 1
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrExists
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// GetByID fetches an order by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Update writes the lifecycle fields when the stored version still matches.
func (r *Repository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	updatedAt := order.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Updates(map[string]any{
			"status":       string(order.Status),
			"notes":        order.Notes,
			"completed_at": order.CompletedAt,
			"updated_at":   updatedAt,
			"version":      gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, order.ID); err != nil {
			return nil, err
		}
		return nil, ports.ErrConflict
	}
	return r.GetByID(ctx, order.ID)
}

// List returns orders matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Model(&orderRecord{})
	if filter.BuyerID != "" {
		query = query.Where("buyer_id = ?", filter.BuyerID)
	}
	if filter.SellerID != "" {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.ParticipantID != "" {
		query = query.Where("(buyer_id = ? OR seller_id = ?)", filter.ParticipantID, filter.ParticipantID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	var records []orderRecord
	if err := query.Order("created_at DESC").Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, nil
}

// Delete removes an order by identifier.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&orderRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(order *domain.Order) orderRecord {
	return orderRecord{
		ID:           order.ID,
		ListingID:    order.ListingID,
		BuyerID:      order.BuyerID,
		SellerID:     order.SellerID,
		Amount:       order.Amount,
		Status:       string(order.Status),
		Notes:        order.Notes,
		DeliveryDate: order.DeliveryDate,
		CompletedAt:  order.CompletedAt,
		Version:      order.Version,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	return &domain.Order{
		ID:           r.ID,
		ListingID:    r.ListingID,
		BuyerID:      r.BuyerID,
		SellerID:     r.SellerID,
		Amount:       r.Amount,
		Status:       domain.Status(r.Status),
		Notes:        r.Notes,
		DeliveryDate: r.DeliveryDate,
		CompletedAt:  r.CompletedAt,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
