package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ProductType determines purchase behaviour: digital goods skip shipping and
// variant selection shortcuts, pod items get print-on-demand handling.
type ProductType string

const (
	TypeDigital  ProductType = "digital"
	TypePhysical ProductType = "physical"
	TypePOD      ProductType = "pod"
)

// Status is the publication state of a product.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Image holds the URLs for one product image.
type Image struct {
	ID        string
	Original  string
	Thumbnail string
	Alt       string
}

// Inventory describes stock tracking for a SKU.
// Policy=false means quantity is not enforced at all.
// Quantity -1 means unlimited, 0 means out of stock, >0 is the available count.
type Inventory struct {
	Policy   bool
	Quantity int
}

// Attribute is one axis of a SKU's variant combination, e.g. color=red.
// Caption is the display form of Value.
type Attribute struct {
	Key     string
	Value   string
	Caption string
}

// Dimensions are used by the backend for shipping calculations.
type Dimensions struct {
	Length float64
	Width  float64
	Height float64
	Weight float64
}

// SKU is one purchasable variant combination of a product.
type SKU struct {
	ID         string
	Price      decimal.Decimal
	RawPrice   *decimal.Decimal
	Inventory  Inventory
	Attributes []Attribute
	Image      string
	Dimensions *Dimensions
}

// Available reports whether the SKU can currently be purchased.
func (s *SKU) Available() bool {
	if !s.Inventory.Policy {
		return true
	}
	return s.Inventory.Quantity == -1 || s.Inventory.Quantity > 0
}

// PropertyItem is one legal value of a product property.
type PropertyItem struct {
	Value   string
	Caption string
}

// Property is a product-level declaration of a variant axis. Every SKU
// attribute key is expected to be declared here; the backend does not enforce
// that, the resolution logic assumes it.
type Property struct {
	Key    string
	Title  string
	Custom bool
	Items  []PropertyItem
}

// Product is the full catalog item as served by the commerce backend.
type Product struct {
	ID          string
	Title       string
	Slug        string
	Description string

	Type   ProductType
	Status Status

	Images            []Image
	DefaultImageIndex int

	Visible     bool
	Purchasable bool

	DiscountPercentage *decimal.Decimal

	CollectionID   string
	CollectionName string

	Gated            bool
	RulesetID        string
	GatedDescription string

	SKUs       []SKU
	Properties []Property
	Tags       []string

	ShippingProfileID string

	CreatedAt string
	UpdatedAt string
}

// ListItem is the listing-page projection of a product.
type ListItem struct {
	ID                 string
	Title              string
	Slug               string
	Images             []Image
	Thumbnail          string
	LowestPrice        decimal.Decimal
	DiscountPercentage *decimal.Decimal
	Gated              bool
	Type               ProductType
	CollectionName     string
	Purchasable        bool
}

// Page is one page of a product listing.
type Page struct {
	Items   []ListItem
	Total   int
	Page    int
	Limit   int
	HasMore bool
}

// Filters narrows a product listing request.
type Filters struct {
	Page         int
	Limit        int
	CollectionID string
	Types        []ProductType
	MinPrice     *float64
	MaxPrice     *float64
	Tags         []string
	Search       string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context, filters Filters) (*Page, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
}
