package shop

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func usd() Currency {
	return Currency{
		Abbreviation:       "USD",
		Symbol:             "$",
		DecimalPlaces:      2,
		ThousandsSeparator: ",",
		DecimalSeparator:   ".",
		SymbolPosition:     SymbolBefore,
	}
}

func TestFormatPrice(t *testing.T) {
	eur := Currency{
		Abbreviation:       "EUR",
		Symbol:             "€",
		DecimalPlaces:      2,
		ThousandsSeparator: ".",
		DecimalSeparator:   ",",
		SymbolPosition:     SymbolAfter,
		SpaceBetweenAmount: true,
	}
	jpy := Currency{
		Abbreviation:   "JPY",
		Symbol:         "¥",
		DecimalPlaces:  0,
		SymbolPosition: SymbolBefore,
	}

	tests := []struct {
		name     string
		amount   string
		currency Currency
		want     string
	}{
		{"usd simple", "19.9", usd(), "$19.90"},
		{"usd thousands", "1234567.891", usd(), "$1,234,567.89"},
		{"usd rounds half up", "10.005", usd(), "$10.01"},
		{"eur after with space", "1234.5", eur, "1.234,50 €"},
		{"zero decimal places", "1500", jpy, "¥1500"},
		{"negative", "-1234.5", usd(), "$-1,234.50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPrice(decimal.RequireFromString(tt.amount), tt.currency)
			assert.Equal(t, tt.want, got)
		})
	}
}

type mockShopRepo struct {
	shop  *Shop
	err   error
	calls atomic.Int32
}

func (m *mockShopRepo) GetByName(_ context.Context, _ string) (*Shop, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.shop, nil
}

func TestResolver_FetchesOnce(t *testing.T) {
	repo := &mockShopRepo{shop: &Shop{ID: "shop-1", Name: "demo", Currency: usd()}}
	r := NewResolver(repo, "demo")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := r.Current(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "shop-1", s.ID)
		}()
	}
	wg.Wait()

	// Subsequent calls hit the cache.
	id, err := r.ShopID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shop-1", id)
	assert.Equal(t, int32(1), repo.calls.Load())
}

type blockingShopRepo struct {
	started chan struct{}
	release chan struct{}
	shop    *Shop
	calls   atomic.Int32
}

func (m *blockingShopRepo) GetByName(ctx context.Context, _ string) (*Shop, error) {
	m.calls.Add(1)
	close(m.started)
	select {
	case <-m.release:
		return m.shop, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestResolver_CancelledCallerDoesNotFailOthers(t *testing.T) {
	repo := &blockingShopRepo{
		started: make(chan struct{}),
		release: make(chan struct{}),
		shop:    &Shop{ID: "shop-1", Name: "demo", Currency: usd()},
	}
	r := NewResolver(repo, "demo")

	ctx1, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := r.Current(ctx1)
		first <- err
	}()
	<-repo.started

	second := make(chan error, 1)
	go func() {
		s, err := r.Current(context.Background())
		if err == nil {
			assert.Equal(t, "shop-1", s.ID)
		}
		second <- err
	}()

	cancel()
	close(repo.release)

	require.NoError(t, <-second)
	require.NoError(t, <-first)
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestResolver_MissingName(t *testing.T) {
	r := NewResolver(&mockShopRepo{}, "")

	_, err := r.Current(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, r.Cached())
}

func TestResolver_FetchErrorIsNotCached(t *testing.T) {
	repo := &mockShopRepo{err: errors.New("boom")}
	r := NewResolver(repo, "demo")

	_, err := r.Current(context.Background())
	require.Error(t, err)

	repo.err = nil
	repo.shop = &Shop{ID: "shop-1"}
	s, err := r.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shop-1", s.ID)
}

func TestResolver_ShopWithoutID(t *testing.T) {
	repo := &mockShopRepo{shop: &Shop{Name: "demo"}}
	r := NewResolver(repo, "demo")

	_, err := r.Current(context.Background())
	require.ErrorIs(t, err, ErrNotConfigured)
}
