package commerce

import (
	"context"
	"net/http"
	"net/url"

	"github.com/altshop/storefront/internal/domain/shop"
)

var _ shop.Repository = (*Client)(nil)

// GetByName fetches shop configuration by shop name. A 404 maps to
// shop.ErrNotFound.
func (c *Client) GetByName(ctx context.Context, name string) (*shop.Shop, error) {
	var dto shopDTO
	err := c.do(ctx, http.MethodGet, "/shops/v2/public/name/"+url.PathEscape(name), nil, nil, &dto)
	if err != nil {
		if IsNotFound(err) {
			return nil, shop.ErrNotFound
		}
		return nil, err
	}
	if err := validate.Struct(dto); err != nil {
		return nil, payloadError("shop", err)
	}
	return dto.domain(), nil
}
