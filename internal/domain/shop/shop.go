package shop

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when the configured shop does not exist.
var ErrNotFound = errors.New("shop not found")

// ErrNotConfigured is returned when an operation requires shop data that
// could not be resolved. Cart creation treats this as fatal and never retries.
var ErrNotConfigured = errors.New("shop is not configured")

// SymbolPosition places the currency symbol relative to the amount.
type SymbolPosition string

const (
	SymbolBefore SymbolPosition = "before"
	SymbolAfter  SymbolPosition = "after"
)

// Currency is the shop's price formatting configuration.
type Currency struct {
	Abbreviation        string
	Symbol              string
	ConversionRateToUSD float64
	DecimalPlaces       int
	ThousandsSeparator  string
	DecimalSeparator    string
	SymbolPosition      SymbolPosition
	SpaceBetweenAmount  bool
}

// PaymentMethod is one way the shop accepts payment.
type PaymentMethod struct {
	ID     string
	Type   string
	Active bool
}

// SocialMedia holds the shop's social links; empty string means not set.
type SocialMedia struct {
	Instagram string
	Twitter   string
	Discord   string
	Telegram  string
	YouTube   string
}

// Design is the subset of shop theming the storefront surfaces.
type Design struct {
	PrimaryColor     string
	FontFamily       string
	HeaderBackground string
}

// Shop is the merchant configuration served by the commerce backend.
type Shop struct {
	ID              string
	Name            string
	URL             string
	OwnerID         string
	Logo            string
	Description     string
	BackgroundColor string
	AgeRestricted   bool
	LaunchDate      string
	Currency        Currency
	PaymentMethods  []PaymentMethod
	SocialMedia     SocialMedia
	Design          Design
}

// Repository fetches shop configuration from the commerce backend.
type Repository interface {
	GetByName(ctx context.Context, name string) (*Shop, error)
}
