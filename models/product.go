package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a game or service sold on the storefront. JSON names follow the
// storefront's product-details contract.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Slug        string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"slug"`
	Name        string    `gorm:"column:nombre;type:varchar(255);not null" json:"nombre"`
	Description string    `gorm:"column:descripcion;type:text" json:"descripcion"`
	BannerURL   string    `gorm:"column:banner_url;type:varchar(1024)" json:"banner_url"`
	RequireID   bool      `gorm:"column:require_id;not null;default:false" json:"require_id"`
	Packages    []Package `gorm:"foreignKey:ProductID" json:"paquetes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// Package is a purchasable recharge option of a product.
type Package struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null" json:"-"`
	Name      string          `gorm:"column:nombre_paquete;type:varchar(255);not null" json:"nombre_paquete"`
	PriceUSD  decimal.Decimal `gorm:"column:precio_usd;type:numeric(14,2);not null;default:0" json:"precio_usd"`
	PriceVES  decimal.Decimal `gorm:"column:precio_ves;type:numeric(14,2);not null;default:0" json:"precio_ves"`
	PriceUSDM decimal.Decimal `gorm:"column:precio_usdm;type:numeric(14,2);not null;default:0" json:"precio_usdm"`
	PriceCOP  decimal.Decimal `gorm:"column:precio_cop;type:numeric(14,2);not null;default:0" json:"precio_cop"`
	SortOrder int             `gorm:"column:orden;not null;default:0" json:"-"`
}

func (Package) TableName() string { return "packages" }
