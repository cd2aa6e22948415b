package handler

import (
	"github.com/shopspring/decimal"

	"github.com/altshop/storefront/internal/domain/cart"
	"github.com/altshop/storefront/internal/domain/catalog"
	"github.com/altshop/storefront/internal/domain/shop"
)

// money renders one amount twice: the raw decimal for arithmetic on the
// client and the shop-formatted display string. Display is empty when the
// shop configuration has not been resolved.
type money struct {
	Amount  decimal.Decimal `json:"amount"`
	Display string          `json:"display,omitempty"`
}

func newMoney(amount decimal.Decimal, s *shop.Shop) money {
	m := money{Amount: amount}
	if s != nil {
		m.Display = shop.FormatPrice(amount, s.Currency)
	}
	return m
}

type imageResponse struct {
	ID        string `json:"id,omitempty"`
	Original  string `json:"original,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Alt       string `json:"alt,omitempty"`
}

func newImages(images []catalog.Image) []imageResponse {
	out := make([]imageResponse, len(images))
	for i, img := range images {
		out[i] = imageResponse{ID: img.ID, Original: img.Original, Thumbnail: img.Thumbnail, Alt: img.Alt}
	}
	return out
}

type attributeResponse struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Caption string `json:"caption,omitempty"`
}

func newAttributes(attrs []catalog.Attribute) []attributeResponse {
	out := make([]attributeResponse, len(attrs))
	for i, a := range attrs {
		out[i] = attributeResponse{Key: a.Key, Value: a.Value, Caption: a.Caption}
	}
	return out
}

type skuResponse struct {
	ID         string              `json:"id"`
	Price      money               `json:"price"`
	RawPrice   *money              `json:"rawPrice,omitempty"`
	Available  bool                `json:"available"`
	Quantity   *int                `json:"quantity,omitempty"`
	Attributes []attributeResponse `json:"attributes"`
	Image      string              `json:"image,omitempty"`
}

func newSKU(sku *catalog.SKU, s *shop.Shop) skuResponse {
	resp := skuResponse{
		ID:         sku.ID,
		Price:      newMoney(sku.Price, s),
		Available:  sku.Available(),
		Attributes: newAttributes(sku.Attributes),
		Image:      sku.Image,
	}
	if sku.RawPrice != nil {
		raw := newMoney(*sku.RawPrice, s)
		resp.RawPrice = &raw
	}
	// Expose the finite count so the client can cap its quantity picker.
	if sku.Inventory.Policy && sku.Inventory.Quantity >= 0 {
		q := sku.Inventory.Quantity
		resp.Quantity = &q
	}
	return resp
}

type attributeValueResponse struct {
	Value     string `json:"value"`
	Caption   string `json:"caption,omitempty"`
	Available bool   `json:"available"`
}

type attributeGroupResponse struct {
	Key    string                   `json:"key"`
	Title  string                   `json:"title"`
	Values []attributeValueResponse `json:"values"`
}

func newAttributeGroups(groups []catalog.AttributeGroup) []attributeGroupResponse {
	out := make([]attributeGroupResponse, len(groups))
	for i, g := range groups {
		values := make([]attributeValueResponse, len(g.Values))
		for j, v := range g.Values {
			values[j] = attributeValueResponse{Value: v.Value, Caption: v.Caption, Available: v.Available}
		}
		out[i] = attributeGroupResponse{Key: g.Key, Title: g.Title, Values: values}
	}
	return out
}

type cartItemResponse struct {
	ProductID  string              `json:"productId"`
	Slug       string              `json:"slug,omitempty"`
	SKUID      string              `json:"skuId"`
	Title      string              `json:"title"`
	Thumbnail  string              `json:"thumbnail,omitempty"`
	Quantity   int                 `json:"quantity"`
	Attributes []attributeResponse `json:"attributes"`
	UnitPrice  money               `json:"unitPrice"`
	TotalPrice money               `json:"totalPrice"`
}

type cartTotalsResponse struct {
	Products money `json:"products"`
	Discount money `json:"discount"`
	Tax      money `json:"tax"`
	Shipping money `json:"shipping"`
	Total    money `json:"total"`
}

type cartResponse struct {
	ID          string             `json:"id,omitempty"`
	Status      string             `json:"status,omitempty"`
	Items       []cartItemResponse `json:"items"`
	ItemCount   int                `json:"itemCount"`
	Totals      cartTotalsResponse `json:"totals"`
	CheckoutURL string             `json:"checkoutUrl,omitempty"`
}

// newCart renders a cart, or the canonical empty cart when c is nil.
func newCart(c *cart.Cart, s *shop.Shop) cartResponse {
	zero := newMoney(decimal.Zero, s)
	resp := cartResponse{
		Items:  []cartItemResponse{},
		Totals: cartTotalsResponse{Products: zero, Discount: zero, Tax: zero, Shipping: zero, Total: zero},
	}
	if c == nil {
		return resp
	}

	resp.ID = c.ID
	resp.Status = string(c.Status)
	resp.CheckoutURL = c.CheckoutURL
	resp.Totals = cartTotalsResponse{
		Products: newMoney(c.Financial.Amounts.ProductTotal, s),
		Discount: newMoney(c.Financial.Amounts.DiscountTotal, s),
		Tax:      newMoney(c.Financial.Amounts.TaxTotal, s),
		Shipping: newMoney(c.Financial.Amounts.ShippingTotal, s),
		Total:    newMoney(c.Financial.Amounts.TotalAmount, s),
	}

	for i := range c.Items {
		it := &c.Items[i]
		resp.ItemCount += it.Quantity
		resp.Items = append(resp.Items, cartItemResponse{
			ProductID:  it.ProductID,
			Slug:       it.Slug,
			SKUID:      it.SKUID,
			Title:      it.Title,
			Thumbnail:  it.Thumbnail,
			Quantity:   it.Quantity,
			Attributes: newAttributes(it.SKU.Attributes),
			UnitPrice:  newMoney(it.UnitPrice, s),
			TotalPrice: newMoney(it.TotalPrice, s),
		})
	}
	return resp
}
