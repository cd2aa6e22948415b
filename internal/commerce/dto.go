package commerce

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/altshop/storefront/internal/domain/cart"
	"github.com/altshop/storefront/internal/domain/catalog"
	"github.com/altshop/storefront/internal/domain/shop"
)

// validate checks decoded payloads. Tags are deliberately minimal: only the
// fields the storefront cannot function without are required, everything
// else is accepted as-is from the backend.
var validate = validator.New()

// payloadError converts validator output into a single validation Error with
// field-level detail.
func payloadError(what string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace()+": "+fe.Tag())
		}
		return &Error{
			Kind:    KindValidation,
			Message: "invalid " + what + " payload: " + strings.Join(fields, "; "),
			cause:   err,
		}
	}
	return &Error{Kind: KindValidation, Message: "invalid " + what + " payload", cause: err}
}

// --- Catalog ---

type imageDTO struct {
	ID        string `json:"id"`
	Original  string `json:"original"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
}

func (d imageDTO) domain() catalog.Image {
	return catalog.Image{ID: d.ID, Original: d.Original, Thumbnail: d.Thumbnail, Alt: d.Alt}
}

type attributeDTO struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Caption string `json:"caption"`
}

type dimensionsDTO struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

type skuDTO struct {
	ID        string           `json:"id" validate:"required"`
	Price     decimal.Decimal  `json:"price"`
	RawPrice  *decimal.Decimal `json:"rawPrice"`
	Inventory struct {
		Policy   bool `json:"policy"`
		Quantity int  `json:"quantity"`
	} `json:"inventory"`
	Attributes []attributeDTO `json:"attributes"`
	Image      *string        `json:"image"`
	Dimensions *dimensionsDTO `json:"dimensions"`
}

func (d skuDTO) domain() catalog.SKU {
	s := catalog.SKU{
		ID:       d.ID,
		Price:    d.Price,
		RawPrice: d.RawPrice,
		Inventory: catalog.Inventory{
			Policy:   d.Inventory.Policy,
			Quantity: d.Inventory.Quantity,
		},
	}
	if d.Image != nil {
		s.Image = *d.Image
	}
	if d.Dimensions != nil {
		s.Dimensions = &catalog.Dimensions{
			Length: d.Dimensions.Length,
			Width:  d.Dimensions.Width,
			Height: d.Dimensions.Height,
			Weight: d.Dimensions.Weight,
		}
	}
	s.Attributes = make([]catalog.Attribute, len(d.Attributes))
	for i, a := range d.Attributes {
		s.Attributes[i] = catalog.Attribute{Key: a.Key, Value: a.Value, Caption: a.Caption}
	}
	return s
}

type propertyDTO struct {
	Value  string `json:"value"`
	Title  string `json:"title"`
	Custom bool   `json:"isCustom"`
	Items  []struct {
		Value   string `json:"value"`
		Caption string `json:"caption"`
	} `json:"items"`
}

type productDTO struct {
	ID                 string           `json:"id" validate:"required"`
	Title              string           `json:"title"`
	Slug               string           `json:"slug"`
	Description        string           `json:"description"`
	Type               string           `json:"type"`
	Status             string           `json:"status"`
	Images             []imageDTO       `json:"images"`
	DefaultImageIndex  int              `json:"defaultImageIndex"`
	IsVisible          *bool            `json:"isVisible"`
	IsPurchasable      *bool            `json:"isPurchasable"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage"`
	CollectionID       *string          `json:"collectionId"`
	CollectionName     *string          `json:"collectionName"`
	IsGated            bool             `json:"isGated"`
	RulesetID          *string          `json:"rulesetId"`
	GatedDescription   *string          `json:"gatedDescription"`
	SKUs               []skuDTO         `json:"skus" validate:"dive"`
	Properties         []propertyDTO    `json:"properties"`
	Tags               []string         `json:"tags"`
	ShippingProfileID  *string          `json:"shippingProfileId"`
	CreatedAt          string           `json:"createdAt"`
	UpdatedAt          string           `json:"updatedAt"`
}

func (d productDTO) domain() *catalog.Product {
	p := &catalog.Product{
		ID:                 d.ID,
		Title:              d.Title,
		Slug:               d.Slug,
		Description:        d.Description,
		Type:               productType(d.Type),
		Status:             catalog.Status(d.Status),
		DefaultImageIndex:  d.DefaultImageIndex,
		Visible:            d.IsVisible == nil || *d.IsVisible,
		Purchasable:        d.IsPurchasable == nil || *d.IsPurchasable,
		DiscountPercentage: d.DiscountPercentage,
		Gated:              d.IsGated,
		Tags:               d.Tags,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	p.CollectionID = deref(d.CollectionID)
	p.CollectionName = deref(d.CollectionName)
	p.RulesetID = deref(d.RulesetID)
	p.GatedDescription = deref(d.GatedDescription)
	p.ShippingProfileID = deref(d.ShippingProfileID)

	p.Images = make([]catalog.Image, len(d.Images))
	for i, img := range d.Images {
		p.Images[i] = img.domain()
	}
	p.SKUs = make([]catalog.SKU, len(d.SKUs))
	for i, s := range d.SKUs {
		p.SKUs[i] = s.domain()
	}
	p.Properties = make([]catalog.Property, len(d.Properties))
	for i, pr := range d.Properties {
		prop := catalog.Property{Key: pr.Value, Title: pr.Title, Custom: pr.Custom}
		prop.Items = make([]catalog.PropertyItem, len(pr.Items))
		for j, it := range pr.Items {
			prop.Items[j] = catalog.PropertyItem{Value: it.Value, Caption: it.Caption}
		}
		p.Properties[i] = prop
	}
	return p
}

type listItemDTO struct {
	ID                 string           `json:"id" validate:"required"`
	Title              string           `json:"title"`
	Slug               string           `json:"slug"`
	Images             []imageDTO       `json:"images"`
	Thumbnail          string           `json:"thumbnail"`
	LowestPrice        decimal.Decimal  `json:"lowestPrice"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage"`
	IsGated            bool             `json:"isGated"`
	Type               string           `json:"type"`
	CollectionName     *string          `json:"collectionName"`
	IsPurchasable      *bool            `json:"isPurchasable"`
}

func (d listItemDTO) domain() catalog.ListItem {
	item := catalog.ListItem{
		ID:                 d.ID,
		Title:              d.Title,
		Slug:               d.Slug,
		Thumbnail:          d.Thumbnail,
		LowestPrice:        d.LowestPrice,
		DiscountPercentage: d.DiscountPercentage,
		Gated:              d.IsGated,
		Type:               productType(d.Type),
		CollectionName:     deref(d.CollectionName),
		Purchasable:        d.IsPurchasable == nil || *d.IsPurchasable,
	}
	item.Images = make([]catalog.Image, len(d.Images))
	for i, img := range d.Images {
		item.Images[i] = img.domain()
	}
	return item
}

// productType folds unknown backend type strings to physical, matching the
// lenient parsing the storefront has always done.
func productType(s string) catalog.ProductType {
	switch catalog.ProductType(s) {
	case catalog.TypeDigital, catalog.TypePOD:
		return catalog.ProductType(s)
	default:
		return catalog.TypePhysical
	}
}

// --- Shop ---

type shopDTO struct {
	ID              string `json:"id" validate:"required"`
	Name            string `json:"name"`
	URL             string `json:"url"`
	OwnerID         string `json:"ownerId"`
	Logo            string `json:"logo"`
	Description     string `json:"description"`
	BackgroundColor string `json:"backgroundColor"`
	IsAgeRestricted bool   `json:"isAgeRestricted"`
	LaunchDate      string `json:"launchDate"`
	Currency        struct {
		Abbreviation        string  `json:"abbreviation"`
		Symbol              string  `json:"symbol"`
		ConversionRateToUSD float64 `json:"conversionRateToUSD"`
		DecimalPlaces       *int    `json:"decimalPlaces"`
		ThousandsSeparator  *string `json:"thousandsSeparator"`
		DecimalSeparator    *string `json:"decimalSeparator"`
		SymbolPosition      string  `json:"symbolPosition"`
		SpaceBetween        bool    `json:"spaceBetweenAmountAndSymbol"`
	} `json:"currency"`
	PaymentMethods []struct {
		ID       string `json:"id"`
		Type     string `json:"type"`
		IsActive bool   `json:"isActive"`
	} `json:"paymentMethods"`
	SocialMedia struct {
		Instagram *string `json:"instagram"`
		Twitter   *string `json:"twitter"`
		Discord   *string `json:"discord"`
		Telegram  *string `json:"telegram"`
		YouTube   *string `json:"youtube"`
	} `json:"socialMedia"`
	Design struct {
		PrimaryColor     string `json:"primaryColor"`
		FontFamily       string `json:"fontFamily"`
		HeaderBackground string `json:"headerBackground"`
	} `json:"design"`
}

func (d shopDTO) domain() *shop.Shop {
	s := &shop.Shop{
		ID:              d.ID,
		Name:            d.Name,
		URL:             d.URL,
		OwnerID:         d.OwnerID,
		Logo:            d.Logo,
		Description:     d.Description,
		BackgroundColor: d.BackgroundColor,
		AgeRestricted:   d.IsAgeRestricted,
		LaunchDate:      d.LaunchDate,
		Currency: shop.Currency{
			Abbreviation:        d.Currency.Abbreviation,
			Symbol:              d.Currency.Symbol,
			ConversionRateToUSD: d.Currency.ConversionRateToUSD,
			DecimalPlaces:       2,
			ThousandsSeparator:  ",",
			DecimalSeparator:    ".",
			SymbolPosition:      shop.SymbolBefore,
			SpaceBetweenAmount:  d.Currency.SpaceBetween,
		},
		SocialMedia: shop.SocialMedia{
			Instagram: deref(d.SocialMedia.Instagram),
			Twitter:   deref(d.SocialMedia.Twitter),
			Discord:   deref(d.SocialMedia.Discord),
			Telegram:  deref(d.SocialMedia.Telegram),
			YouTube:   deref(d.SocialMedia.YouTube),
		},
		Design: shop.Design{
			PrimaryColor:     d.Design.PrimaryColor,
			FontFamily:       d.Design.FontFamily,
			HeaderBackground: d.Design.HeaderBackground,
		},
	}
	if d.Currency.DecimalPlaces != nil {
		s.Currency.DecimalPlaces = *d.Currency.DecimalPlaces
	}
	if d.Currency.ThousandsSeparator != nil {
		s.Currency.ThousandsSeparator = *d.Currency.ThousandsSeparator
	}
	if d.Currency.DecimalSeparator != nil {
		s.Currency.DecimalSeparator = *d.Currency.DecimalSeparator
	}
	if d.Currency.SymbolPosition == string(shop.SymbolAfter) {
		s.Currency.SymbolPosition = shop.SymbolAfter
	}
	s.PaymentMethods = make([]shop.PaymentMethod, len(d.PaymentMethods))
	for i, pm := range d.PaymentMethods {
		s.PaymentMethods[i] = shop.PaymentMethod{ID: pm.ID, Type: pm.Type, Active: pm.IsActive}
	}
	return s
}

// --- Cart ---

type cartItemDTO struct {
	ProductID string `json:"productId"`
	Slug      string `json:"slug"`
	SKUID     string `json:"skuId" validate:"required"`
	SKU       struct {
		VariantKey string         `json:"variantKey"`
		Attributes []attributeDTO `json:"attributes"`
	} `json:"sku"`
	Quantity                 int             `json:"quantity"`
	Title                    string          `json:"title"`
	Description              string          `json:"description"`
	ProductType              string          `json:"productType"`
	Thumbnail                string          `json:"thumbnail"`
	UnitPrice                decimal.Decimal `json:"unitPrice"`
	TotalPrice               decimal.Decimal `json:"totalPrice"`
	TotalPriceBeforeDiscount decimal.Decimal `json:"totalPriceBeforeDiscount"`
	Ruleset                  struct {
		Type               string          `json:"type"`
		DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	} `json:"ruleset"`
}

func (d cartItemDTO) domain() cart.Item {
	it := cart.Item{
		ProductID:                d.ProductID,
		Slug:                     d.Slug,
		SKUID:                    d.SKUID,
		Quantity:                 d.Quantity,
		Title:                    d.Title,
		Description:              d.Description,
		ProductType:              d.ProductType,
		Thumbnail:                d.Thumbnail,
		UnitPrice:                d.UnitPrice,
		TotalPrice:               d.TotalPrice,
		TotalPriceBeforeDiscount: d.TotalPriceBeforeDiscount,
		Ruleset: cart.RulesetDiscount{
			Type:               d.Ruleset.Type,
			DiscountPercentage: d.Ruleset.DiscountPercentage,
		},
	}
	it.SKU.VariantKey = d.SKU.VariantKey
	it.SKU.Attributes = make([]catalog.Attribute, len(d.SKU.Attributes))
	for i, a := range d.SKU.Attributes {
		it.SKU.Attributes[i] = catalog.Attribute{Key: a.Key, Value: a.Value, Caption: a.Caption}
	}
	return it
}

type moneyBlockDTO struct {
	Tax struct {
		Total      decimal.Decimal `json:"total"`
		Droplinked decimal.Decimal `json:"droplinked"`
		Producer   decimal.Decimal `json:"producer"`
	} `json:"tax"`
	Discounts struct {
		Ruleset  decimal.Decimal `json:"ruleset"`
		GiftCard decimal.Decimal `json:"giftCard"`
	} `json:"discounts"`
	Shipping struct {
		Total         decimal.Decimal `json:"total"`
		PlatformShare decimal.Decimal `json:"dropLinkedShare"`
		MerchantShare decimal.Decimal `json:"merchantShare"`
	} `json:"shipping"`
	Amounts struct {
		ProductTotal              decimal.Decimal `json:"productTotal"`
		DiscountTotal             decimal.Decimal `json:"discountTotal"`
		TaxTotal                  decimal.Decimal `json:"taxTotal"`
		ShippingTotal             decimal.Decimal `json:"shippingTotal"`
		TotalBeforeDiscount       decimal.Decimal `json:"totalBeforeDiscount"`
		FinalTotalBeforeTax       decimal.Decimal `json:"finalTotalBeforeTax"`
		TotalAmount               decimal.Decimal `json:"totalAmount"`
		ProductTotalAfterDiscount decimal.Decimal `json:"productTotalAfterDiscount"`
	} `json:"amounts"`
}

func (d moneyBlockDTO) domain() cart.FinancialDetails {
	return cart.FinancialDetails{
		Tax: cart.Tax{
			Total:    d.Tax.Total,
			Platform: d.Tax.Droplinked,
			Producer: d.Tax.Producer,
		},
		Discounts: cart.Discounts{
			Ruleset:  d.Discounts.Ruleset,
			GiftCard: d.Discounts.GiftCard,
		},
		Shipping: cart.Shipping{
			Total:         d.Shipping.Total,
			PlatformShare: d.Shipping.PlatformShare,
			MerchantShare: d.Shipping.MerchantShare,
		},
		Amounts: cart.Amounts{
			ProductTotal:              d.Amounts.ProductTotal,
			DiscountTotal:             d.Amounts.DiscountTotal,
			TaxTotal:                  d.Amounts.TaxTotal,
			ShippingTotal:             d.Amounts.ShippingTotal,
			TotalBeforeDiscount:       d.Amounts.TotalBeforeDiscount,
			FinalTotalBeforeTax:       d.Amounts.FinalTotalBeforeTax,
			TotalAmount:               d.Amounts.TotalAmount,
			ProductTotalAfterDiscount: d.Amounts.ProductTotalAfterDiscount,
		},
	}
}

type cartDTO struct {
	ID         string        `json:"id" validate:"required"`
	ShopID     string        `json:"shopId"`
	CustomerID *string       `json:"customerId"`
	Email      *string       `json:"email"`
	Status     string        `json:"status"`
	Items      []cartItemDTO `json:"items" validate:"dive"`
	GiftCard   *struct {
		Type  string          `json:"type"`
		Value decimal.Decimal `json:"value"`
		Code  string          `json:"code"`
	} `json:"giftcard"`
	Financial   moneyBlockDTO `json:"financialDetails"`
	CheckoutURL string        `json:"checkoutUrl"`
	ReturnURL   string        `json:"returnUrl"`
	Additional  struct {
		Note string `json:"note"`
	} `json:"additional"`
	ExpiredAt string `json:"expiredAt"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func (d cartDTO) domain() *cart.Cart {
	c := &cart.Cart{
		ID:          d.ID,
		ShopID:      d.ShopID,
		CustomerID:  deref(d.CustomerID),
		Email:       deref(d.Email),
		Status:      cart.Status(d.Status),
		Financial:   d.Financial.domain(),
		CheckoutURL: d.CheckoutURL,
		ReturnURL:   d.ReturnURL,
		Note:        d.Additional.Note,
		ExpiredAt:   d.ExpiredAt,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.GiftCard != nil {
		c.GiftCard = &cart.GiftCard{
			Type:  d.GiftCard.Type,
			Value: d.GiftCard.Value,
			Code:  d.GiftCard.Code,
		}
	}
	c.Items = make([]cart.Item, len(d.Items))
	for i, it := range d.Items {
		c.Items[i] = it.domain()
	}
	return c
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
