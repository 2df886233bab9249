package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductType string

const (
	ProductTypeSized    ProductType = "sized"
	ProductTypeNonSized ProductType = "non-sized"
)

func (t ProductType) Valid() bool {
	return t == ProductTypeSized || t == ProductTypeNonSized
}

// Size is a garment size. The zero value means "no size" and is what
// non-sized cart lines, order lines and reviews carry.
type Size string

const (
	SizeNone Size = ""
	SizeS    Size = "S"
	SizeM    Size = "M"
	SizeL    Size = "L"
	SizeXL   Size = "XL"
)

var AllSizes = []Size{SizeS, SizeM, SizeL, SizeXL}

// ParseSize accepts s, m, l, xl in any case. Blank input yields SizeNone.
func ParseSize(raw string) (Size, error) {
	switch Size(strings.ToUpper(strings.TrimSpace(raw))) {
	case SizeNone:
		return SizeNone, nil
	case SizeS:
		return SizeS, nil
	case SizeM:
		return SizeM, nil
	case SizeL:
		return SizeL, nil
	case SizeXL:
		return SizeXL, nil
	}
	return SizeNone, fmt.Errorf("invalid size %q, expected one of S, M, L, XL", raw)
}

type Product struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID      *uint           `gorm:"index" json:"category_id"`
	Category        *Category       `json:"category,omitempty"`
	Name            string          `gorm:"not null" json:"name"`
	Slug            string          `gorm:"uniqueIndex;not null" json:"slug"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	DiscountedPrice decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discounted_price"`
	ProductType     ProductType     `gorm:"type:varchar(20);not null" json:"product_type"`
	Quantity        int             `gorm:"not null" json:"quantity"` // stock for non-sized products only
	IsAvailable     bool            `json:"is_available"`
	ImageURL        string          `json:"image_url"`
	Sizes           []ProductSize   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"sizes,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (p *Product) IsSized() bool {
	return p.ProductType == ProductTypeSized
}

// ProductSize holds the authoritative stock of one size of a sized product.
type ProductSize struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	ProductID uint `gorm:"uniqueIndex:idx_product_size;not null" json:"product_id"`
	Size      Size `gorm:"type:varchar(4);uniqueIndex:idx_product_size;not null" json:"size"`
	Quantity  int  `gorm:"not null" json:"quantity"`
}
