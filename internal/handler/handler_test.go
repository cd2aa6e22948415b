package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altshop/storefront/internal/commerce"
	"github.com/altshop/storefront/internal/domain/cart"
	"github.com/altshop/storefront/internal/domain/catalog"
	"github.com/altshop/storefront/internal/domain/shop"
	"github.com/altshop/storefront/internal/session"
)

// --- Fakes ---

type fakeCatalog struct {
	page     *catalog.Page
	products map[string]*catalog.Product
	err      error
}

func (f *fakeCatalog) List(context.Context, catalog.Filters) (*catalog.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeCatalog) GetBySlug(_ context.Context, slug string) (*catalog.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[slug]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return p, nil
}

type fakeShopRepo struct {
	shop *shop.Shop
	err  error
}

func (f *fakeShopRepo) GetByName(context.Context, string) (*shop.Shop, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.shop, nil
}

// fakeGateway keeps one in-memory cart table and lets tests inject errors
// per method.
type fakeGateway struct {
	mu     sync.Mutex
	carts  map[string]*cart.Cart
	nextID int

	getErr    error
	addErr    error
	updateErr error
	removeErr error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{carts: map[string]*cart.Cart{}}
}

func (g *fakeGateway) Get(_ context.Context, cartID string) (*cart.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.getErr != nil {
		return nil, g.getErr
	}
	c, ok := g.carts[cartID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	return c, nil
}

func (g *fakeGateway) Create(_ context.Context, shopID, _ string) (*cart.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	c := &cart.Cart{ID: "cart-" + strconv.Itoa(g.nextID), ShopID: shopID, Status: cart.StatusActive}
	g.carts[c.ID] = c
	return c, nil
}

func (g *fakeGateway) AddItem(_ context.Context, cartID, skuID string, quantity int) (*cart.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.addErr != nil {
		return nil, g.addErr
	}
	c, ok := g.carts[cartID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	c.Items = append(c.Items, cart.Item{
		SKUID:      skuID,
		Quantity:   quantity,
		Title:      "Item " + skuID,
		UnitPrice:  decimal.NewFromInt(10),
		TotalPrice: decimal.NewFromInt(int64(10 * quantity)),
	})
	return c, nil
}

func (g *fakeGateway) UpdateItemQuantity(_ context.Context, cartID, skuID string, quantity int) (*cart.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.updateErr != nil {
		return nil, g.updateErr
	}
	c, ok := g.carts[cartID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	for i := range c.Items {
		if c.Items[i].SKUID == skuID {
			c.Items[i].Quantity = quantity
		}
	}
	return c, nil
}

func (g *fakeGateway) RemoveItem(_ context.Context, cartID, skuID string) (*cart.Cart, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.removeErr != nil {
		return nil, g.removeErr
	}
	c, ok := g.carts[cartID]
	if !ok {
		return nil, cart.ErrNotFound
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if it.SKUID != skuID {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return c, nil
}

func (g *fakeGateway) Delete(_ context.Context, cartID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.carts, cartID)
	return nil
}

// --- Fixtures ---

func testShop() *shop.Shop {
	return &shop.Shop{
		ID:   "shop-1",
		Name: "demo",
		Currency: shop.Currency{
			Abbreviation:       "USD",
			Symbol:             "$",
			DecimalPlaces:      2,
			ThousandsSeparator: ",",
			DecimalSeparator:   ".",
			SymbolPosition:     shop.SymbolBefore,
		},
		PaymentMethods: []shop.PaymentMethod{
			{ID: "pm-1", Type: "STRIPE", Active: true},
			{ID: "pm-2", Type: "PAYPAL", Active: false},
		},
	}
}

func shirt() *catalog.Product {
	return &catalog.Product{
		ID:    "p1",
		Title: "Shirt",
		Slug:  "shirt",
		Type:  catalog.TypePhysical,
		SKUs: []catalog.SKU{
			{
				ID:        "sku-s-red",
				Price:     decimal.NewFromInt(20),
				Inventory: catalog.Inventory{Policy: true, Quantity: 3},
				Attributes: []catalog.Attribute{
					{Key: "size", Value: "s", Caption: "Small"},
					{Key: "color", Value: "red", Caption: "Red"},
				},
			},
			{
				ID:        "sku-m-red",
				Price:     decimal.NewFromInt(20),
				Inventory: catalog.Inventory{Policy: true, Quantity: 0},
				Attributes: []catalog.Attribute{
					{Key: "size", Value: "m", Caption: "Medium"},
					{Key: "color", Value: "red", Caption: "Red"},
				},
			},
		},
	}
}

type testEnv struct {
	handler *Handler
	gateway *fakeGateway
	catalog *fakeCatalog
	server  *httptest.Server
	client  *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cat := &fakeCatalog{
		page: &catalog.Page{
			Items: []catalog.ListItem{{
				ID:          "p1",
				Title:       "Shirt",
				Slug:        "shirt",
				LowestPrice: decimal.NewFromInt(20),
				Type:        catalog.TypePhysical,
				Purchasable: true,
			}},
			Total: 1,
			Page:  1,
			Limit: 20,
		},
		products: map[string]*catalog.Product{"shirt": shirt()},
	}

	resolver := shop.NewResolver(&fakeShopRepo{shop: testShop()}, "demo")
	gateway := newFakeGateway()
	manager := cart.NewManager(gateway, session.NewMemory(0), resolver, "https://store.example")

	h := NewHandler(cat, resolver, manager)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{
		handler: h,
		gateway: gateway,
		catalog: cat,
		server:  srv,
		client:  &http.Client{Jar: jar},
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

// --- Shop ---

func TestGetShop(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/shop", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "shop-1", body["id"])
	assert.Equal(t, []any{"STRIPE"}, body["paymentMethods"], "inactive methods filtered out")
}

func TestGetShop_NotFound(t *testing.T) {
	resolver := shop.NewResolver(&fakeShopRepo{err: shop.ErrNotFound}, "demo")
	h := NewHandler(&fakeCatalog{}, resolver, cart.NewManager(newFakeGateway(), session.NewMemory(0), resolver, ""))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/shop")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// --- Products ---

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/products?page=1&limit=20", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := body["items"].([]any)
	require.Len(t, items, 1)
	first := items[0].(map[string]any)
	assert.Equal(t, "shirt", first["slug"])
	price := first["lowestPrice"].(map[string]any)
	assert.Equal(t, "$20.00", price["display"])
}

func TestListProducts_BadFilters(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{
		"/products?page=zero",
		"/products?limit=-5",
		"/products?minPrice=abc",
		"/products?types=hologram",
	} {
		resp, body := env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		assert.Equal(t, "invalid_request", body["code"], path)
	}
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/products/shirt", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "sku-s-red", body["defaultSkuId"], "first available SKU is the default")
	sel := body["defaultSelection"].(map[string]any)
	assert.Equal(t, "s", sel["size"])
	assert.Equal(t, "red", sel["color"])

	groups := body["attributeGroups"].([]any)
	require.Len(t, groups, 2)
	size := groups[0].(map[string]any)
	assert.Equal(t, "size", size["key"])
	values := size["values"].([]any)
	require.Len(t, values, 2)
	assert.Equal(t, "s", values[0].(map[string]any)["value"], "sizes in rank order")
	assert.Equal(t, false, values[1].(map[string]any)["available"], "sold-out medium flagged")
}

func TestGetProduct_NotFound(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/products/ghost", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "product_not_found", body["code"])
}

// --- Resolve ---

func TestResolveVariant(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/products/shirt/resolve",
		`{"selection":{"size":"s","color":"red"},"quantity":2}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	sku := body["sku"].(map[string]any)
	assert.Equal(t, "sku-s-red", sku["id"])
	verdict := body["quantity"].(map[string]any)
	assert.Equal(t, true, verdict["valid"])
}

func TestResolveVariant_Incomplete(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/products/shirt/resolve",
		`{"selection":{"color":"red"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Nil(t, body["sku"], "partial selection resolves to no SKU")
	verdict := body["quantity"].(map[string]any)
	assert.Equal(t, false, verdict["valid"])

	// Both sizes stay selectable on top of color=red; only small is backed
	// by stock, which shows up in the detail availability, not here.
	selectable := body["selectable"].([]any)
	require.Len(t, selectable, 2)
}

func TestResolveVariant_QuantityExceedsStock(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/products/shirt/resolve",
		`{"selection":{"size":"s","color":"red"},"quantity":5}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	verdict := body["quantity"].(map[string]any)
	assert.Equal(t, false, verdict["valid"])
	assert.Contains(t, verdict["message"], "only 3 available")
	assert.Equal(t, float64(3), verdict["available"])
}

func TestResolveVariant_ExplicitZeroQuantity(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/products/shirt/resolve",
		`{"selection":{"size":"s","color":"red"},"quantity":0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	verdict := body["quantity"].(map[string]any)
	assert.Equal(t, false, verdict["valid"], "explicit zero is rejected, not defaulted")
	assert.Contains(t, verdict["message"], "positive integer")

	// Only an absent quantity defaults to 1.
	resp, body = env.do(t, http.MethodPost, "/products/shirt/resolve",
		`{"selection":{"size":"s","color":"red"}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	verdict = body["quantity"].(map[string]any)
	assert.Equal(t, true, verdict["valid"])
}

// --- Cart ---

func TestCart_EmptyWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
	assert.Equal(t, float64(0), body["itemCount"])
}

func TestCart_AddFlow(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/cart/items", `{"skuId":"sku-s-red","quantity":2}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["id"], "first add creates the cart")
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(2), body["itemCount"])

	var sessionSet bool
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie {
			sessionSet = true
			assert.True(t, c.HttpOnly)
		}
	}
	assert.True(t, sessionSet, "first mutation mints the session cookie")

	// The same client (cookie jar) sees its cart on GET.
	resp, body = env.do(t, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["itemCount"])
}

func TestCart_AddInvalidBody(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"quantity":2}`,
		`{"skuId":"sku-s-red","quantity":0}`,
		`{"skuId":"sku-s-red","quantity":-1}`,
		`not json`,
	} {
		resp, decoded := env.do(t, http.MethodPost, "/cart/items", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Equal(t, "invalid_request", decoded["code"], body)
	}
}

func TestCart_UpdateWithoutCart(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPatch, "/cart/items/sku-s-red", `{"quantity":3}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "no_active_cart", body["code"])
}

func TestCart_UpdateExpired(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/cart/items", `{"skuId":"sku-s-red","quantity":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env.gateway.updateErr = cart.ErrNotFound
	resp, body := env.do(t, http.MethodPatch, "/cart/items/sku-s-red", `{"quantity":3}`)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Equal(t, "cart_expired", body["code"])

	// The session was cleared; the cart reads empty again.
	env.gateway.updateErr = nil
	resp, body = env.do(t, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
}

func TestCart_RemoveLastItem(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/cart/items", `{"skuId":"sku-s-red","quantity":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodDelete, "/cart/items/sku-s-red", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
	assert.Empty(t, body["id"], "emptied cart leaves the session cartless")
}

func TestCart_Clear(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/cart/items", `{"skuId":"sku-s-red","quantity":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := env.do(t, http.MethodDelete, "/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])

	resp, body = env.do(t, http.MethodGet, "/cart", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
}

func TestCart_UpstreamErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.do(t, http.MethodPost, "/cart/items", `{"skuId":"sku-s-red","quantity":1}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	env.gateway.updateErr = &commerce.Error{Kind: commerce.KindTimeout, Message: "deadline exceeded"}
	resp, body := env.do(t, http.MethodPatch, "/cart/items/sku-s-red", `{"quantity":2}`)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	assert.Equal(t, "upstream_timeout", body["code"])

	env.gateway.updateErr = &commerce.Error{Kind: commerce.KindNetwork, Message: "connection refused"}
	resp, body = env.do(t, http.MethodPatch, "/cart/items/sku-s-red", `{"quantity":2}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "upstream_unreachable", body["code"])
}
