package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	SeedOrderNumber    int64 = 345
	DefaultCodePrefix        = "wincode"
	DefaultMaxDiscount       = 20
	DefaultPopupTitle        = "Play & win a discount!"

	// NoEmailSentinel is sent by the storefront when the merchant does not collect emails.
	NoEmailSentinel = "no-email@example.com"
)

type GameType string

const (
	GameBouncingBall  GameType = "bouncing_ball"
	GamePassTheGaps   GameType = "pass_the_gaps"
	GameReactionClick GameType = "reaction_click"
)

func (g GameType) Valid() bool {
	switch g {
	case GameBouncingBall, GamePassTheGaps, GameReactionClick:
		return true
	}
	return false
}

type ShopSettings struct {
	ID   uint   `gorm:"primaryKey"`
	Shop string `gorm:"size:255;uniqueIndex;not null"`

	// only ever moved by SettingsRepository.AllocateOrderNumber
	DiscountCodeOrderNumber int64  `gorm:"not null"`
	DiscountCodePrefix      string `gorm:"size:32;not null"`

	RequireName  bool     `gorm:"not null"`
	RequireEmail bool     `gorm:"not null"`
	MaxDiscount  int      `gorm:"not null"`
	GameType     GameType `gorm:"size:32;not null"`
	PopupEnabled bool     `gorm:"not null"`
	PopupTitle   string   `gorm:"size:120"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewShopSettings returns the row a shop starts with.
func NewShopSettings(shop string) *ShopSettings {
	return &ShopSettings{
		Shop:                    shop,
		DiscountCodeOrderNumber: SeedOrderNumber,
		DiscountCodePrefix:      DefaultCodePrefix,
		RequireEmail:            true,
		MaxDiscount:             DefaultMaxDiscount,
		GameType:                GameBouncingBall,
		PopupEnabled:            true,
		PopupTitle:              DefaultPopupTitle,
	}
}

// Session is a Shopify offline session. AccessToken may be sealed, see repository.SessionRepository.
type Session struct {
	ID          string `gorm:"primaryKey;size:255;not null"` // offline_<shop>
	Shop        string `gorm:"size:255;index;not null"`
	State       string `gorm:"size:255"`
	IsOnline    bool   `gorm:"not null"`
	Scope       string `gorm:"size:1024"`
	Expires     *time.Time
	AccessToken string `gorm:"size:512"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type DiscountClaim struct {
	ID          string          `gorm:"primaryKey;size:36;not null" json:"id"`
	Shop        string          `gorm:"size:255;index;not null" json:"shop"`
	Email       string          `gorm:"size:254;index" json:"email,omitempty"`
	FirstName   string          `gorm:"size:50" json:"firstName,omitempty"`
	LastName    string          `gorm:"size:50" json:"lastName,omitempty"`
	Code        string          `gorm:"size:64;index;not null" json:"code"`
	Percentage  decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"percentage"`
	OrderNumber int64           `gorm:"not null" json:"orderNumber"`
	GameType    string          `gorm:"size:32" json:"gameType,omitempty"`
	Device      string          `gorm:"size:32" json:"device,omitempty"`
	DiscountGID string          `gorm:"size:128" json:"discountId,omitempty"` // shopify gid
	CreatedAt   time.Time       `gorm:"index" json:"createdAt"`
}

type GamePlay struct {
	ID        string    `gorm:"primaryKey;size:36;not null"`
	Shop      string    `gorm:"size:255;index;not null"`
	GameType  GameType  `gorm:"size:32;not null"`
	Device    string    `gorm:"size:32"`
	Score     int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"` // X-Shopify-Webhook-Id
	Topic       string `gorm:"size:64;index"`
	Shop        string `gorm:"size:255;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

type OAuthState struct {
	State     string    `gorm:"primaryKey;size:64;not null"`
	Shop      string    `gorm:"size:255;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}
