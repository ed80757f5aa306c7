package entity

// CompleteOrder is sent by the payment-integration layer on payment success.
type CompleteOrder struct {
	Header  EventHeader `json:"header"`
	OrderID string      `json:"order_id"`
}

// CancelOrder is sent on payment failure or an explicit customer cancel.
type CancelOrder struct {
	Header  EventHeader `json:"header"`
	OrderID string      `json:"order_id"`
	Reason  string      `json:"reason"`
}
