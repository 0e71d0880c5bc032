package models

import (
	"hangarhub/src/types"
	"time"
)

type Booking struct {
	ID       uint      `gorm:"primarykey" json:"id"`
	HangarID uint      `json:"hangar_id,omitempty"`
	UserID   uint      `json:"user_id,omitempty"`
	CheckIn  time.Time `json:"check_in,omitempty"`
	CheckOut time.Time `json:"check_out,omitempty"`
	Nights   int       `json:"nights,omitempty"`

	Subtotal   float64 `json:"subtotal,omitempty"`
	Fees       float64 `json:"fees,omitempty"`
	TotalPrice float64 `json:"total_price,omitempty"`
	Currency   string  `gorm:"default:'brl'" json:"currency,omitempty"`

	Status              types.BookingStatus `gorm:"default:'pending'" json:"status,omitempty"`
	BookingType         types.BookingType   `json:"booking_type,omitempty"`
	RefundPolicyApplied string              `json:"refund_policy_applied,omitempty"`

	PaymentMethod   string  `json:"payment_method,omitempty"`
	PaymentIntentId *string `json:"payment_intent_id,omitempty"`

	Hangar *Hangar `gorm:"foreignKey:hangar_id" json:"hangar,omitempty"`
	User   *User   `gorm:"foreignKey:user_id" json:"user,omitempty"`

	types.Timestamps
}
