// measurement/hit.go
package measurement

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// ProtocolVersion is the Measurement Protocol version every hit is sent with.
const ProtocolVersion = "1"

type HitType string

const (
	HitPageview    HitType = "pageview"
	HitEvent       HitType = "event"
	HitTransaction HitType = "transaction"
)

// ProductAction is the enhanced-ecommerce tag describing what happened to
// the products carried by a hit.
type ProductAction string

const (
	ProductActionDetail   ProductAction = "detail"
	ProductActionAdd      ProductAction = "add"
	ProductActionRemove   ProductAction = "remove"
	ProductActionCheckout ProductAction = "checkout"
)

// Product is one product entry (or impression) on a hit.
type Product struct {
	SKU      string          `json:"sku"`
	Name     string          `json:"name"`
	Variant  string          `json:"variant,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity,omitempty"`
}

// MarshalJSON renders the price with two decimals, as it is sent on a hit.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price string `json:"price"`
	}{product(p), p.Price.StringFixed(2)})
}

// Hit is a single Measurement Protocol submission. Setters return the hit so
// calls can be chained; a Hit is owned by one request and never shared.
type Hit struct {
	Type              HitType `json:"type"`
	ProtocolVersion   string  `json:"protocolVersion"`
	TrackingID        string  `json:"trackingId"`
	ClientID          string  `json:"clientId"`
	IPOverride        string  `json:"ipOverride,omitempty"`
	UserAgentOverride string  `json:"userAgentOverride,omitempty"`
	GoogleAdsID       string  `json:"googleAdsId,omitempty"`

	DocumentPath  string `json:"documentPath,omitempty"`
	DocumentTitle string `json:"documentTitle,omitempty"`

	EventCategory string `json:"eventCategory,omitempty"`
	EventAction   string `json:"eventAction,omitempty"`
	EventLabel    string `json:"eventLabel,omitempty"`
	EventValue    int64  `json:"eventValue,omitempty"`

	TransactionID string          `json:"transactionId,omitempty"`
	Revenue       decimal.Decimal `json:"revenue"`
	Tax           decimal.Decimal `json:"tax"`
	Shipping      decimal.Decimal `json:"shipping"`
	CouponCode    string          `json:"couponCode,omitempty"`

	ProductAction      ProductAction `json:"productAction,omitempty"`
	CheckoutStep       int           `json:"checkoutStep,omitempty"`
	CheckoutStepOption string        `json:"checkoutStepOption,omitempty"`
	Products           []Product     `json:"products,omitempty"`
	Impressions        []Product     `json:"impressions,omitempty"`
}

// NewHit returns a hit primed with the protocol version and tracking id.
func NewHit(trackingID string) *Hit {
	return &Hit{
		ProtocolVersion: ProtocolVersion,
		TrackingID:      trackingID,
	}
}

func (h *Hit) SetType(t HitType) *Hit {
	h.Type = t
	return h
}

func (h *Hit) SetClientID(cid string) *Hit {
	h.ClientID = cid
	return h
}

func (h *Hit) SetIPOverride(ip string) *Hit {
	h.IPOverride = ip
	return h
}

func (h *Hit) SetUserAgentOverride(ua string) *Hit {
	h.UserAgentOverride = ua
	return h
}

func (h *Hit) SetGoogleAdsID(gclid string) *Hit {
	h.GoogleAdsID = gclid
	return h
}

func (h *Hit) SetDocumentPath(path string) *Hit {
	h.DocumentPath = path
	return h
}

func (h *Hit) SetDocumentTitle(title string) *Hit {
	h.DocumentTitle = title
	return h
}

func (h *Hit) SetEventCategory(category string) *Hit {
	h.EventCategory = category
	return h
}

func (h *Hit) SetEventAction(action string) *Hit {
	h.EventAction = action
	return h
}

func (h *Hit) SetEventLabel(label string) *Hit {
	h.EventLabel = label
	return h
}

func (h *Hit) SetEventValue(value int64) *Hit {
	h.EventValue = value
	return h
}

func (h *Hit) SetTransactionID(id string) *Hit {
	h.TransactionID = id
	return h
}

func (h *Hit) SetRevenue(v decimal.Decimal) *Hit {
	h.Revenue = v
	return h
}

func (h *Hit) SetTax(v decimal.Decimal) *Hit {
	h.Tax = v
	return h
}

func (h *Hit) SetShipping(v decimal.Decimal) *Hit {
	h.Shipping = v
	return h
}

func (h *Hit) SetCouponCode(code string) *Hit {
	h.CouponCode = code
	return h
}

// SetProductAction replaces any product action already on the hit; a hit
// carries at most one.
func (h *Hit) SetProductAction(action ProductAction) *Hit {
	h.ProductAction = action
	return h
}

func (h *Hit) SetCheckoutStep(step int) *Hit {
	h.CheckoutStep = step
	return h
}

func (h *Hit) SetCheckoutStepOption(option string) *Hit {
	h.CheckoutStepOption = option
	return h
}

func (h *Hit) AddProduct(p Product) *Hit {
	h.Products = append(h.Products, p)
	return h
}

func (h *Hit) AddImpression(p Product) *Hit {
	h.Impressions = append(h.Impressions, p)
	return h
}

// Values encodes the hit as Measurement Protocol v1 parameters.
func (h *Hit) Values() url.Values {
	v := url.Values{}
	v.Set("v", h.ProtocolVersion)
	v.Set("tid", h.TrackingID)
	v.Set("cid", h.ClientID)
	v.Set("t", string(h.Type))
	setIf(v, "uip", h.IPOverride)
	setIf(v, "ua", h.UserAgentOverride)
	setIf(v, "gclid", h.GoogleAdsID)
	setIf(v, "dp", h.DocumentPath)
	setIf(v, "dt", h.DocumentTitle)

	if h.Type == HitEvent {
		v.Set("ec", h.EventCategory)
		v.Set("ea", h.EventAction)
		setIf(v, "el", h.EventLabel)
		v.Set("ev", strconv.FormatInt(h.EventValue, 10))
	}

	if h.TransactionID != "" {
		v.Set("ti", h.TransactionID)
		v.Set("tr", h.Revenue.StringFixed(2))
		v.Set("tt", h.Tax.StringFixed(2))
		v.Set("ts", h.Shipping.StringFixed(2))
		setIf(v, "tcc", h.CouponCode)
	}

	setIf(v, "pa", string(h.ProductAction))
	if h.CheckoutStep > 0 {
		v.Set("cos", strconv.Itoa(h.CheckoutStep))
	}
	setIf(v, "col", h.CheckoutStepOption)

	for i, p := range h.Products {
		prefix := fmt.Sprintf("pr%d", i+1)
		v.Set(prefix+"id", p.SKU)
		v.Set(prefix+"nm", p.Name)
		setIf(v, prefix+"va", p.Variant)
		v.Set(prefix+"pr", p.Price.StringFixed(2))
		if p.Quantity > 0 {
			v.Set(prefix+"qt", strconv.Itoa(p.Quantity))
		}
	}
	for i, p := range h.Impressions {
		prefix := fmt.Sprintf("il1pi%d", i+1)
		v.Set(prefix+"id", p.SKU)
		v.Set(prefix+"nm", p.Name)
		v.Set(prefix+"pr", p.Price.StringFixed(2))
	}
	return v
}

func setIf(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}
