package commerce

import (
	"context"
	"net/http"
	"net/url"

	"github.com/altshop/storefront/internal/domain/cart"
)

var _ cart.Gateway = (*Client)(nil)

// Get fetches a cart by identifier. A 404 maps to cart.ErrNotFound so the
// session manager can distinguish a confirmed-missing cart from transport
// trouble.
func (c *Client) Get(ctx context.Context, cartID string) (*cart.Cart, error) {
	var dto cartDTO
	err := c.do(ctx, http.MethodGet, "/v2/carts/"+url.PathEscape(cartID), nil, nil, &dto)
	return c.cartResult(&dto, err)
}

// Create opens a new cart for the shop.
func (c *Client) Create(ctx context.Context, shopID, returnURL string) (*cart.Cart, error) {
	body := map[string]string{
		"shopId":    shopID,
		"returnUrl": returnURL,
	}
	var dto cartDTO
	err := c.do(ctx, http.MethodPost, "/v2/carts", nil, body, &dto)
	return c.cartResult(&dto, err)
}

// AddItem adds quantity units of a SKU to the cart.
func (c *Client) AddItem(ctx context.Context, cartID, skuID string, quantity int) (*cart.Cart, error) {
	body := map[string]any{
		"skuId":    skuID,
		"quantity": quantity,
	}
	var dto cartDTO
	err := c.do(ctx, http.MethodPost, "/v2/carts/"+url.PathEscape(cartID)+"/products", nil, body, &dto)
	return c.cartResult(&dto, err)
}

// UpdateItemQuantity sets the quantity of a cart line.
func (c *Client) UpdateItemQuantity(ctx context.Context, cartID, skuID string, quantity int) (*cart.Cart, error) {
	body := map[string]int{"quantity": quantity}
	var dto cartDTO
	err := c.do(ctx, http.MethodPatch,
		"/v2/carts/"+url.PathEscape(cartID)+"/products/"+url.PathEscape(skuID), nil, body, &dto)
	return c.cartResult(&dto, err)
}

// RemoveItem removes a SKU line from the cart.
func (c *Client) RemoveItem(ctx context.Context, cartID, skuID string) (*cart.Cart, error) {
	var dto cartDTO
	err := c.do(ctx, http.MethodDelete,
		"/v2/carts/"+url.PathEscape(cartID)+"/products/"+url.PathEscape(skuID), nil, nil, &dto)
	return c.cartResult(&dto, err)
}

// Delete removes the whole cart from the server.
func (c *Client) Delete(ctx context.Context, cartID string) error {
	err := c.do(ctx, http.MethodDelete, "/v2/carts/"+url.PathEscape(cartID), nil, nil, nil)
	if IsNotFound(err) {
		return cart.ErrNotFound
	}
	return err
}

func (c *Client) cartResult(dto *cartDTO, err error) (*cart.Cart, error) {
	if err != nil {
		if IsNotFound(err) {
			return nil, cart.ErrNotFound
		}
		return nil, err
	}
	if verr := validate.Struct(dto); verr != nil {
		return nil, payloadError("cart", verr)
	}
	return dto.domain(), nil
}
