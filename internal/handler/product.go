package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/altshop/storefront/internal/domain/catalog"
)

type listItemResponse struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Slug           string          `json:"slug"`
	Thumbnail      string          `json:"thumbnail,omitempty"`
	Images         []imageResponse `json:"images"`
	LowestPrice    money           `json:"lowestPrice"`
	Gated          bool            `json:"gated"`
	Type           string          `json:"type"`
	CollectionName string          `json:"collectionName,omitempty"`
	Purchasable    bool            `json:"purchasable"`
}

type listResponse struct {
	Items   []listItemResponse `json:"items"`
	Total   int                `json:"total"`
	Page    int                `json:"page"`
	Limit   int                `json:"limit"`
	HasMore bool               `json:"hasMore"`
}

// ListProducts serves the filtered, paginated product listing.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		respondErrorCode(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	page, err := h.catalog.List(r.Context(), filters)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	s := h.formatShop(r)
	resp := listResponse{
		Items:   []listItemResponse{},
		Total:   page.Total,
		Page:    page.Page,
		Limit:   page.Limit,
		HasMore: page.HasMore,
	}
	for i := range page.Items {
		it := &page.Items[i]
		resp.Items = append(resp.Items, listItemResponse{
			ID:             it.ID,
			Title:          it.Title,
			Slug:           it.Slug,
			Thumbnail:      it.Thumbnail,
			Images:         newImages(it.Images),
			LowestPrice:    newMoney(it.LowestPrice, s),
			Gated:          it.Gated,
			Type:           string(it.Type),
			CollectionName: it.CollectionName,
			Purchasable:    it.Purchasable,
		})
	}
	respondJSON(w, http.StatusOK, resp)
}

type filterError struct{ msg string }

func (e *filterError) Error() string { return e.msg }

func parseFilters(r *http.Request) (catalog.Filters, error) {
	q := r.URL.Query()
	var filters catalog.Filters
	var err error

	if filters.Page, err = parseIntParam(q.Get("page")); err != nil {
		return filters, &filterError{"page must be a positive integer"}
	}
	if filters.Limit, err = parseIntParam(q.Get("limit")); err != nil {
		return filters, &filterError{"limit must be a positive integer"}
	}
	filters.CollectionID = q.Get("collectionId")
	filters.Search = q.Get("search")

	for _, t := range splitParam(q.Get("types")) {
		switch pt := catalog.ProductType(t); pt {
		case catalog.TypeDigital, catalog.TypePhysical, catalog.TypePOD:
			filters.Types = append(filters.Types, pt)
		default:
			return filters, &filterError{"unknown product type: " + t}
		}
	}
	filters.Tags = splitParam(q.Get("tags"))

	if filters.MinPrice, err = parseFloatParam(q.Get("minPrice")); err != nil {
		return filters, &filterError{"minPrice must be a number"}
	}
	if filters.MaxPrice, err = parseFloatParam(q.Get("maxPrice")); err != nil {
		return filters, &filterError{"maxPrice must be a number"}
	}
	return filters, nil
}

func parseIntParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}

func parseFloatParam(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type productResponse struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	Slug              string                   `json:"slug"`
	Description       string                   `json:"description,omitempty"`
	Type              string                   `json:"type"`
	Images            []imageResponse          `json:"images"`
	DefaultImageIndex int                      `json:"defaultImageIndex"`
	Gated             bool                     `json:"gated"`
	GatedDescription  string                   `json:"gatedDescription,omitempty"`
	Tags              []string                 `json:"tags,omitempty"`
	SKUs              []skuResponse            `json:"skus"`
	AttributeGroups   []attributeGroupResponse `json:"attributeGroups"`
	DefaultSKUID      string                   `json:"defaultSkuId,omitempty"`
	DefaultSelection  map[string]string        `json:"defaultSelection"`
}

// GetProduct serves product detail plus the computed attribute groups and the
// default variant for initial selection.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	p, err := h.catalog.GetBySlug(r.Context(), slug)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	s := h.formatShop(r)
	resp := productResponse{
		ID:                p.ID,
		Title:             p.Title,
		Slug:              p.Slug,
		Description:       p.Description,
		Type:              string(p.Type),
		Images:            newImages(p.Images),
		DefaultImageIndex: p.DefaultImageIndex,
		Gated:             p.Gated,
		GatedDescription:  p.GatedDescription,
		Tags:              p.Tags,
		SKUs:              make([]skuResponse, len(p.SKUs)),
		AttributeGroups:   newAttributeGroups(catalog.GroupAttributes(p.SKUs)),
	}
	for i := range p.SKUs {
		resp.SKUs[i] = newSKU(&p.SKUs[i], s)
	}

	defaultSKU := catalog.FirstAvailableSKU(p)
	resp.DefaultSelection = catalog.SelectionFor(defaultSKU)
	if defaultSKU != nil {
		resp.DefaultSKUID = defaultSKU.ID
	}

	respondJSON(w, http.StatusOK, resp)
}

type resolveRequest struct {
	Selection map[string]string `json:"selection"`
	// Pointer so an explicit zero is distinguishable from an absent field:
	// absent defaults to 1, zero must fail quantity validation.
	Quantity *int `json:"quantity"`
}

type selectableValueResponse struct {
	Value      string `json:"value"`
	Selectable bool   `json:"selectable"`
}

type selectableGroupResponse struct {
	Key    string                    `json:"key"`
	Values []selectableValueResponse `json:"values"`
}

type quantityVerdict struct {
	Valid     bool   `json:"valid"`
	Message   string `json:"message,omitempty"`
	Available *int   `json:"available,omitempty"`
}

type resolveResponse struct {
	SKU        *skuResponse              `json:"sku"`
	Selectable []selectableGroupResponse `json:"selectable"`
	Quantity   quantityVerdict           `json:"quantity"`
}

// ResolveVariant resolves a tentative attribute selection to a SKU, reports
// which values remain selectable on top of it, and validates the requested
// quantity against the resolved SKU's inventory.
func (h *Handler) ResolveVariant(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req resolveRequest
	if err := decodeBody(r, &req); err != nil {
		respondErrorCode(w, http.StatusBadRequest, "invalid_request", "invalid request body")
		return
	}
	if req.Selection == nil {
		req.Selection = map[string]string{}
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	p, err := h.catalog.GetBySlug(r.Context(), slug)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	s := h.formatShop(r)
	resp := resolveResponse{
		Selectable: []selectableGroupResponse{},
	}
	for _, g := range catalog.GroupAttributes(p.SKUs) {
		sg := selectableGroupResponse{Key: g.Key}
		for _, v := range g.Values {
			sg.Values = append(sg.Values, selectableValueResponse{
				Value:      v.Value,
				Selectable: catalog.IsValueSelectable(p.SKUs, req.Selection, g.Key, v.Value),
			})
		}
		resp.Selectable = append(resp.Selectable, sg)
	}

	sku := catalog.ResolveSKU(p, req.Selection)
	if sku == nil {
		resp.Quantity = quantityVerdict{Valid: false, Message: "no variant matches the selection"}
		respondJSON(w, http.StatusOK, resp)
		return
	}

	skuResp := newSKU(sku, s)
	resp.SKU = &skuResp
	resp.Quantity = quantityVerdict{Valid: true}
	if err := catalog.ValidateQuantity(sku, quantity); err != nil {
		verdict := quantityVerdict{Valid: false, Message: err.Error()}
		var qtyErr *catalog.QuantityError
		if errors.As(err, &qtyErr) && qtyErr.Available >= 0 {
			verdict.Available = &qtyErr.Available
		}
		resp.Quantity = verdict
	}

	respondJSON(w, http.StatusOK, resp)
}
