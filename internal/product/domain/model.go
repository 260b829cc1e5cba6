package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name        string          `json:"name" gorm:"type:varchar(255);not null"`
	SKU         string          `json:"sku" gorm:"column:sku;type:varchar(255);not null;uniqueIndex:ux_products_sku"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(15,2);not null"`
	Description *string         `json:"description,omitempty" gorm:"type:text"`
	Categories  string          `json:"categories" gorm:"type:text;not null"`
	Image       *string         `json:"image,omitempty" gorm:"type:varchar(255)"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null;index:ix_products_created_at"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
}

func (Product) TableName() string { return "products" }
