package backendapi

import (
	"time"

	"github.com/onecrateapp/onecrate/internal/subscription"
)

type Address struct {
	HouseNo    string `json:"houseNo"`
	Street     string `json:"street"`
	Landmark   string `json:"landmark"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

type User struct {
	FullName string  `json:"fullName"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Address  Address `json:"address"`
}

// ProfileUpdate is the mutable subset of the account record.
type ProfileUpdate struct {
	FullName string  `json:"fullName"`
	Phone    string  `json:"phone"`
	Address  Address `json:"address"`
}

// Subscription is a recurring order as the backend reports it.
type Subscription struct {
	ID               string              `json:"id"`
	SubscriptionName string              `json:"subscriptionName"`
	Items            []subscription.Item `json:"items"`
	GrandTotal       int                 `json:"grandTotal"`
	TotalSavings     int                 `json:"totalSavings"`
	PaymentStatus    string              `json:"paymentStatus"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// Active reports whether the subscription's payment went through.
func (s Subscription) Active() bool {
	return s.PaymentStatus == "completed"
}
