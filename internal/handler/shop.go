package handler

import (
	"net/http"

	"github.com/altshop/storefront/internal/domain/shop"
)

type currencyResponse struct {
	Abbreviation       string `json:"abbreviation"`
	Symbol             string `json:"symbol"`
	DecimalPlaces      int    `json:"decimalPlaces"`
	ThousandsSeparator string `json:"thousandsSeparator"`
	DecimalSeparator   string `json:"decimalSeparator"`
	SymbolPosition     string `json:"symbolPosition"`
	SpaceBetween       bool   `json:"spaceBetweenAmountAndSymbol"`
}

type socialMediaResponse struct {
	Instagram string `json:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Discord   string `json:"discord,omitempty"`
	Telegram  string `json:"telegram,omitempty"`
	YouTube   string `json:"youtube,omitempty"`
}

type designResponse struct {
	PrimaryColor     string `json:"primaryColor,omitempty"`
	FontFamily       string `json:"fontFamily,omitempty"`
	HeaderBackground string `json:"headerBackground,omitempty"`
}

type shopResponse struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	URL             string              `json:"url,omitempty"`
	Logo            string              `json:"logo,omitempty"`
	Description     string              `json:"description,omitempty"`
	BackgroundColor string              `json:"backgroundColor,omitempty"`
	AgeRestricted   bool                `json:"ageRestricted"`
	Currency        currencyResponse    `json:"currency"`
	SocialMedia     socialMediaResponse `json:"socialMedia"`
	Design          designResponse      `json:"design"`
	PaymentMethods  []string            `json:"paymentMethods"`
}

// GetShop returns the resolved shop configuration.
func (h *Handler) GetShop(w http.ResponseWriter, r *http.Request) {
	s, err := h.shop.Current(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newShop(s))
}

func newShop(s *shop.Shop) shopResponse {
	resp := shopResponse{
		ID:              s.ID,
		Name:            s.Name,
		URL:             s.URL,
		Logo:            s.Logo,
		Description:     s.Description,
		BackgroundColor: s.BackgroundColor,
		AgeRestricted:   s.AgeRestricted,
		Currency: currencyResponse{
			Abbreviation:       s.Currency.Abbreviation,
			Symbol:             s.Currency.Symbol,
			DecimalPlaces:      s.Currency.DecimalPlaces,
			ThousandsSeparator: s.Currency.ThousandsSeparator,
			DecimalSeparator:   s.Currency.DecimalSeparator,
			SymbolPosition:     string(s.Currency.SymbolPosition),
			SpaceBetween:       s.Currency.SpaceBetweenAmount,
		},
		SocialMedia: socialMediaResponse{
			Instagram: s.SocialMedia.Instagram,
			Twitter:   s.SocialMedia.Twitter,
			Discord:   s.SocialMedia.Discord,
			Telegram:  s.SocialMedia.Telegram,
			YouTube:   s.SocialMedia.YouTube,
		},
		Design: designResponse{
			PrimaryColor:     s.Design.PrimaryColor,
			FontFamily:       s.Design.FontFamily,
			HeaderBackground: s.Design.HeaderBackground,
		},
		PaymentMethods: []string{},
	}
	for _, pm := range s.PaymentMethods {
		if pm.Active {
			resp.PaymentMethods = append(resp.PaymentMethods, pm.Type)
		}
	}
	return resp
}
