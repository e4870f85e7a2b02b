package model

// Webhook payloads. Only the fields the app acts on are decoded.

type WebhookCustomer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CustomersRedactPayload struct {
	ShopID         int64           `json:"shop_id"`
	ShopDomain     string          `json:"shop_domain"`
	Customer       WebhookCustomer `json:"customer"`
	OrdersToRedact []int64         `json:"orders_to_redact"`
}

type CustomersDataRequestPayload struct {
	ShopID          int64           `json:"shop_id"`
	ShopDomain      string          `json:"shop_domain"`
	Customer        WebhookCustomer `json:"customer"`
	OrdersRequested []int64         `json:"orders_requested"`
	DataRequest     struct {
		ID int64 `json:"id"`
	} `json:"data_request"`
}

type ShopRedactPayload struct {
	ShopID     int64  `json:"shop_id"`
	ShopDomain string `json:"shop_domain"`
}
