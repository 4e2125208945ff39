package models

// Session is the ambient state of one storefront visitor as seen on a request.
type Session struct {
	GuestID string
	UserID  string
	Token   string
}
