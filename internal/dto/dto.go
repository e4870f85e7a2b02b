package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"game-discount-app/internal/model"
)

// Percentage accepts a JSON number or string ("16", "16%") and keeps the raw text.
type Percentage string

func (p *Percentage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = Percentage(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("percentage must be a number or string: %w", err)
	}
	*p = Percentage(n.String())
	return nil
}

type ClaimRequest struct {
	Shop       string     `json:"shop"`
	Email      string     `json:"email"`
	Percentage Percentage `json:"percentage"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	GameType   string     `json:"gameType"`
	Device     string     `json:"device"`
}

type ClaimResponse struct {
	DiscountCode string `json:"discountCode"`
	Email        string `json:"email"`
	Success      bool   `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type SettingsRequest struct {
	DiscountCodePrefix string `json:"discountCodePrefix"`
	RequireName        bool   `json:"requireName"`
	RequireEmail       bool   `json:"requireEmail"`
	MaxDiscount        int    `json:"maxDiscount"`
	GameType           string `json:"gameType"`
	PopupEnabled       bool   `json:"popupEnabled"`
	PopupTitle         string `json:"popupTitle"`
}

type SettingsResponse struct {
	Shop                    string `json:"shop"`
	DiscountCodePrefix      string `json:"discountCodePrefix"`
	DiscountCodeOrderNumber int64  `json:"discountCodeOrderNumber"`
	RequireName             bool   `json:"requireName"`
	RequireEmail            bool   `json:"requireEmail"`
	MaxDiscount             int    `json:"maxDiscount"`
	GameType                string `json:"gameType"`
	PopupEnabled            bool   `json:"popupEnabled"`
	PopupTitle              string `json:"popupTitle"`
}

func NewSettingsResponse(s *model.ShopSettings) *SettingsResponse {
	return &SettingsResponse{
		Shop:                    s.Shop,
		DiscountCodePrefix:      s.DiscountCodePrefix,
		DiscountCodeOrderNumber: s.DiscountCodeOrderNumber,
		RequireName:             s.RequireName,
		RequireEmail:            s.RequireEmail,
		MaxDiscount:             s.MaxDiscount,
		GameType:                string(s.GameType),
		PopupEnabled:            s.PopupEnabled,
		PopupTitle:              s.PopupTitle,
	}
}

type PopupConfigResponse struct {
	PopupEnabled bool   `json:"popupEnabled"`
	PopupTitle   string `json:"popupTitle"`
	GameType     string `json:"gameType"`
	MaxDiscount  int    `json:"maxDiscount"`
	RequireEmail bool   `json:"requireEmail"`
	RequireName  bool   `json:"requireName"`
}

func NewPopupConfigResponse(s *model.ShopSettings) *PopupConfigResponse {
	return &PopupConfigResponse{
		PopupEnabled: s.PopupEnabled,
		PopupTitle:   s.PopupTitle,
		GameType:     string(s.GameType),
		MaxDiscount:  s.MaxDiscount,
		RequireEmail: s.RequireEmail,
		RequireName:  s.RequireName,
	}
}

type GamePlayRequest struct {
	Shop     string `json:"shop"`
	GameType string `json:"gameType"`
	Device   string `json:"device"`
	Score    int    `json:"score"`
}

type ClaimListResponse struct {
	Data  []*model.DiscountClaim `json:"data"`
	Total int64                  `json:"total"`
	Page  int                    `json:"page"`
	Limit int                    `json:"limit"`
}
