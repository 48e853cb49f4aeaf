// api/models/commerce.go
package models

import "github.com/shopspring/decimal"

// ProductType carries the one attribute of a commerce product type that
// matters for tracking.
type ProductType struct {
	Handle      string `json:"handle,omitempty"`
	HasVariants bool   `json:"hasVariants"`
}

type Product struct {
	ID               int         `json:"id"`
	Title            string      `json:"title"`
	Type             ProductType `json:"type"`
	Variants         []Variant   `json:"variants,omitempty"`
	DefaultVariantID int         `json:"defaultVariantId,omitempty"`
}

// DefaultVariant returns the variant whose id matches DefaultVariantID.
func (p *Product) DefaultVariant() (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == p.DefaultVariantID {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// Variant is the purchasable unit of a product.
type Variant struct {
	ID      int             `json:"id"`
	SKU     string          `json:"sku"`
	Title   string          `json:"title"`
	Price   decimal.Decimal `json:"price"`
	Product *Product        `json:"product,omitempty"`
}

// HasVariants reports whether the parent product type has variants.
func (v *Variant) HasVariants() bool {
	return v.Product != nil && v.Product.Type.HasVariants
}

// ProductOrVariant holds exactly one of Product or Variant. Variant wins when
// both are set.
type ProductOrVariant struct {
	Product *Product `json:"product,omitempty"`
	Variant *Variant `json:"variant,omitempty"`
}

// Resolve maps the value to a purchasable variant: the variant itself, the
// first variant of a product whose type has variants, or the product's
// default variant otherwise.
func (pv ProductOrVariant) Resolve() (*Variant, bool) {
	if pv.Variant != nil {
		return pv.Variant, true
	}
	if pv.Product == nil {
		return nil, false
	}
	if pv.Product.Type.HasVariants {
		if len(pv.Product.Variants) == 0 {
			return nil, false
		}
		return &pv.Product.Variants[0], true
	}
	return pv.Product.DefaultVariant()
}

type LineItem struct {
	Purchasable *Variant        `json:"purchasable"`
	SalePrice   decimal.Decimal `json:"salePrice"`
	Qty         int             `json:"qty"`
}

type Order struct {
	Number            string          `json:"number"`
	TotalPrice        decimal.Decimal `json:"totalPrice"`
	TotalTax          decimal.Decimal `json:"totalTax"`
	TotalShippingCost decimal.Decimal `json:"totalShippingCost"`
	CouponCode        string          `json:"couponCode,omitempty"`
	LineItems         []LineItem      `json:"lineItems"`
}
