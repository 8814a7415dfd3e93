package domain

// Response standardizes gateway responses.
type Response struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Redirect string      `json:"redirect,omitempty"`
}

// Totals is the checkout summary shown next to the cart.
type Totals struct {
	Subtotal      float64        `json:"subtotal"`
	Discount      float64        `json:"discount"`
	Total         float64        `json:"total"`
	AppliedCoupon *AppliedCoupon `json:"appliedCoupon,omitempty"`
}
