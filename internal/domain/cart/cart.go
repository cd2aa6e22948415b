package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/altshop/storefront/internal/domain/catalog"
)

var (
	// ErrNotFound is returned by the Gateway when the server reports the
	// cart missing (404). It drives identifier invalidation and recovery;
	// transport failures must not map to it.
	ErrNotFound = errors.New("cart not found")

	// ErrExpired is surfaced to callers after a confirmed-missing cart has
	// been cleared during update or remove.
	ErrExpired = errors.New("cart expired")

	// ErrNoActiveCart is returned when an operation requires an existing
	// cart but the session has no identifier stored.
	ErrNoActiveCart = errors.New("no active cart")
)

// InvalidQuantityError rejects a non-positive requested quantity.
type InvalidQuantityError struct {
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return "quantity must be greater than 0"
}

// Status is the server-side cart lifecycle state.
type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusExpired Status = "EXPIRED"
)

// ItemSKU is the variant snapshot denormalized onto a cart item.
type ItemSKU struct {
	VariantKey string
	Attributes []catalog.Attribute
}

// RulesetDiscount is a token-gated discount applied to an item.
type RulesetDiscount struct {
	Type               string
	DiscountPercentage decimal.Decimal
}

// Item is one line of a cart. Quantity is the only client-mutable field;
// every price field is server-computed and overwritten wholesale on each
// response, never recalculated locally.
type Item struct {
	ProductID   string
	Slug        string
	SKUID       string
	SKU         ItemSKU
	Quantity    int
	Title       string
	Description string
	ProductType string
	Thumbnail   string

	UnitPrice                decimal.Decimal
	TotalPrice               decimal.Decimal
	TotalPriceBeforeDiscount decimal.Decimal

	Ruleset RulesetDiscount
}

// DisplayTotal is the transient unit-price times quantity estimate shown
// while a server round-trip is in flight. Authoritative totals always come
// from the next response.
func (i *Item) DisplayTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Tax is the server-computed tax breakdown.
type Tax struct {
	Total    decimal.Decimal
	Platform decimal.Decimal
	Producer decimal.Decimal
}

// Discounts is the server-computed discount breakdown.
type Discounts struct {
	Ruleset  decimal.Decimal
	GiftCard decimal.Decimal
}

// Shipping is the server-computed shipping breakdown.
type Shipping struct {
	Total         decimal.Decimal
	PlatformShare decimal.Decimal
	MerchantShare decimal.Decimal
}

// Amounts is the server-computed totals block; TotalAmount is the final
// checkout amount.
type Amounts struct {
	ProductTotal              decimal.Decimal
	DiscountTotal             decimal.Decimal
	TaxTotal                  decimal.Decimal
	ShippingTotal             decimal.Decimal
	TotalBeforeDiscount       decimal.Decimal
	FinalTotalBeforeTax       decimal.Decimal
	TotalAmount               decimal.Decimal
	ProductTotalAfterDiscount decimal.Decimal
}

// FinancialDetails carries every money figure for a cart. All of it is
// computed by the commerce backend.
type FinancialDetails struct {
	Tax       Tax
	Discounts Discounts
	Shipping  Shipping
	Amounts   Amounts
}

// GiftCard is a gift card code applied to the cart.
type GiftCard struct {
	Type  string
	Value decimal.Decimal
	Code  string
}

// Cart is the cached copy of a server-owned cart. The client never holds
// more authority than the opaque identifier.
type Cart struct {
	ID         string
	ShopID     string
	CustomerID string
	Email      string
	Status     Status
	Items      []Item

	GiftCard  *GiftCard
	Financial FinancialDetails

	CheckoutURL string
	ReturnURL   string
	Note        string

	ExpiredAt string
	CreatedAt string
	UpdatedAt string
}

// Gateway is the remote commerce service's cart API. Implementations map a
// 404 on any cart-scoped call to ErrNotFound and keep transport failures
// distinguishable from it.
type Gateway interface {
	Get(ctx context.Context, cartID string) (*Cart, error)
	Create(ctx context.Context, shopID, returnURL string) (*Cart, error)
	AddItem(ctx context.Context, cartID, skuID string, quantity int) (*Cart, error)
	UpdateItemQuantity(ctx context.Context, cartID, skuID string, quantity int) (*Cart, error)
	RemoveItem(ctx context.Context, cartID, skuID string) (*Cart, error)
	Delete(ctx context.Context, cartID string) error
}

// IdentifierStore persists the single opaque cart identifier per session.
// Load returns "" when no identifier is stored.
type IdentifierStore interface {
	Load(ctx context.Context, session string) (string, error)
	Save(ctx context.Context, session, cartID string) error
	Clear(ctx context.Context, session string) error
}

// ShopResolver supplies the shop identifier required to create a cart.
type ShopResolver interface {
	ShopID(ctx context.Context) (string, error)
}
