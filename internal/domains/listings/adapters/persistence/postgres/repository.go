package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/domain"
	"github.com/Apurer/go-gin-marketplace/internal/domains/listings/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists listings in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	repo := &Repository{db: db}
	if db != nil {
		_ = db.AutoMigrate(&listingRecord{})
	}
	return repo
}

type listingRecord struct {
	ID           string          `gorm:"primaryKey;column:id;size:64"`
	SellerID     string          `gorm:"column:seller_id;size:64;index"`
	Title        string          `gorm:"column:title"`
	Description  string          `gorm:"column:description"`
	Category     string          `gorm:"column:category;size:64;index"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	DeliveryDays int             `gorm:"column:delivery_days"`
	Cover        string          `gorm:"column:cover"`
	Images       pq.StringArray  `gorm:"column:images;type:text[]"`
	CreatedAt    time.Time       `gorm:"column:created_at;index"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (listingRecord) TableName() string { return "listings" }

func (r *Repository) Create(ctx context.Context, listing *domain.Listing) (*domain.Listing, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, errors.New("listing is nil")
	}
	record := toRecord(listing)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record listingRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Listing, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).Model(&listingRecord{})
	if filter.SellerID != "" {
		query = query.Where("seller_id = ?", filter.SellerID)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	var records []listingRecord
	if err := query.Order("created_at DESC").Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	listings := make([]*domain.Listing, 0, len(records))
	for i := range records {
		listings = append(listings, records[i].toDomain())
	}
	return listings, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Delete(&listingRecord{}, "id = ?", id)
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
		return errors.New("postgres listing repository not configured")
	}
	return nil
}

func toRecord(listing *domain.Listing) listingRecord {
	return listingRecord{
		ID:           listing.ID,
		SellerID:     listing.SellerID,
		Title:        listing.Title,
		Description:  listing.Description,
		Category:     listing.Category,
		Price:        listing.Price,
		DeliveryDays: listing.DeliveryDays,
		Cover:        listing.Cover,
		Images:       pq.StringArray(listing.Images),
		CreatedAt:    listing.CreatedAt,
		UpdatedAt:    listing.UpdatedAt,
	}
}

func (r listingRecord) toDomain() *domain.Listing {
	return &domain.Listing{
		ID:           r.ID,
		SellerID:     r.SellerID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Price:        r.Price,
		DeliveryDays: r.DeliveryDays,
		Cover:        r.Cover,
		Images:       []string(r.Images),
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}
