package migrations

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Run applies the relational schema of every bounded context in one pass.
// The records here must stay column-compatible with the Postgres adapters.
func Run(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	return db.AutoMigrate(
		&userRecord{},
		&sessionRecord{},
		&listingRecord{},
		&orderRecord{},
		&orderIdempotencyRecord{},
	)
}

type userRecord struct {
	ID           string    `gorm:"primaryKey;column:id;size:64"`
	Username     string    `gorm:"column:username;uniqueIndex;size:128"`
	Email        string    `gorm:"column:email;uniqueIndex;size:256"`
	PasswordHash string    `gorm:"column:password_hash"`
	Country      string    `gorm:"column:country;size:64"`
	Img          string    `gorm:"column:img"`
	Phone        string    `gorm:"column:phone"`
	Description  string    `gorm:"column:description"`
	IsSeller     bool      `gorm:"column:is_seller;not null;default:false"`
	IsAdmin      bool      `gorm:"column:is_admin;not null;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (userRecord) TableName() string { return "users" }

type sessionRecord struct {
	Token     string    `gorm:"primaryKey;column:token;size:64"`
	UserID    string    `gorm:"column:user_id;size:64;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;index"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (sessionRecord) TableName() string { return "user_sessions" }

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

// Order status indexes back the buyer and seller dashboards.
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

type orderIdempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128;not null"`
	OrderID     string    `gorm:"column:order_id;size:64;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;index"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (orderIdempotencyRecord) TableName() string { return "order_idempotency_keys" }
