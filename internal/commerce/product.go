package commerce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/altshop/storefront/internal/domain/catalog"
)

var _ catalog.Repository = (*Client)(nil)

// listPayload is the paginated listing body; some deployments nest it inside
// an extra data envelope, some return the item array directly.
type listPayload struct {
	Data           []listItemDTO `json:"data"`
	TotalDocuments int           `json:"totalDocuments"`
	CurrentPage    int           `json:"currentPage"`
	Limit          int           `json:"limit"`
	HasNextPage    bool          `json:"hasNextPage"`
}

// List fetches one page of the shop's products.
func (c *Client) List(ctx context.Context, filters catalog.Filters) (*catalog.Page, error) {
	q := url.Values{}
	if filters.Page > 0 {
		q.Set("page", strconv.Itoa(filters.Page))
	}
	if filters.Limit > 0 {
		q.Set("limit", strconv.Itoa(filters.Limit))
	}
	if filters.CollectionID != "" {
		q.Set("collectionId", filters.CollectionID)
	}
	if len(filters.Types) > 0 {
		types, _ := json.Marshal(filters.Types)
		q.Set("types", string(types))
	}
	if filters.MinPrice != nil {
		q.Set("minPrice", strconv.FormatFloat(*filters.MinPrice, 'f', -1, 64))
	}
	if filters.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatFloat(*filters.MaxPrice, 'f', -1, 64))
	}
	if len(filters.Tags) > 0 {
		tags, _ := json.Marshal(filters.Tags)
		q.Set("tags", string(tags))
	}
	if filters.Search != "" {
		q.Set("search", filters.Search)
	}
	q.Set("shopName", c.shopName)

	var raw json.RawMessage
	err := c.do(ctx, http.MethodGet, "/product-v2/public/shop/"+url.PathEscape(c.shopName), q, nil, &raw)
	if err != nil {
		return nil, err
	}

	page := &catalog.Page{
		Page:  max(filters.Page, 1),
		Limit: filters.Limit,
	}
	if page.Limit == 0 {
		page.Limit = 20
	}

	if payload, ok := decodeListBody(raw); ok {
		page.Total = payload.TotalDocuments
		if payload.CurrentPage > 0 {
			page.Page = payload.CurrentPage
		}
		if payload.Limit > 0 {
			page.Limit = payload.Limit
		}
		page.HasMore = payload.HasNextPage
		page.Items = listItems(payload.Data)
		return page, nil
	}

	// Fallback: a bare item array without pagination counters.
	var items []listItemDTO
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &Error{Kind: KindValidation, Message: "decode product list: " + err.Error(), cause: err}
	}
	page.Total = len(items)
	page.Items = listItems(items)
	return page, nil
}

// decodeListBody probes the two paginated listing shapes: the counters at the
// top level, or the whole thing wrapped in one more data envelope.
func decodeListBody(raw []byte) (listPayload, bool) {
	var payload listPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Data != nil {
		return payload, true
	}
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		payload = listPayload{}
		if err := json.Unmarshal(env.Data, &payload); err == nil && payload.Data != nil {
			return payload, true
		}
	}
	return listPayload{}, false
}

func listItems(dtos []listItemDTO) []catalog.ListItem {
	items := make([]catalog.ListItem, 0, len(dtos))
	for _, d := range dtos {
		if d.ID == "" {
			continue
		}
		items = append(items, d.domain())
	}
	return items
}

// GetBySlug fetches the full product behind a slug. A 404 maps to
// catalog.ErrNotFound.
func (c *Client) GetBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var dto productDTO
	err := c.do(ctx, http.MethodGet, "/product-v2/public/by-slug/"+url.PathEscape(slug), nil, nil, &dto)
	if err != nil {
		if IsNotFound(err) {
			return nil, catalog.ErrNotFound
		}
		return nil, err
	}
	if err := validate.Struct(dto); err != nil {
		return nil, payloadError("product", err)
	}
	return dto.domain(), nil
}
