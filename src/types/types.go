package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type Metadata map[string]any

// BookingStatus lifecycle: the reservation protocol writes rows as
// confirmed directly (pending is a hold state that is never returned
// to the customer from that path); cancelled is reached through the
// cancellation endpoint or the stale-hold sweep.
type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELED  BookingStatus = "cancelled"
)

// BookingType is decided once at row creation and never recomputed.
type BookingType string

const (
	BOOKING_REFUNDABLE     BookingType = "refundable"
	BOOKING_NON_REFUNDABLE BookingType = "non_refundable"
)

type ConfirmBookingRequestBody struct {
	HangarID   uint     `json:"hangarId" binding:"required"`
	UserID     uint     `json:"userId" binding:"required"`
	CheckIn    string   `json:"checkIn" binding:"required,bookingdate"`
	CheckOut   string   `json:"checkOut" binding:"required,bookingdate"`
	TotalPrice *float64 `json:"totalPrice" binding:"required"`
	Subtotal   float64  `json:"subtotal,omitempty"`
	Fees       float64  `json:"fees,omitempty"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type HangarCalendarURIParams struct {
	HangarID uint `uri:"id" binding:"required"`
}

type BookingSummary struct {
	ID           uint        `json:"id"`
	Status       string      `json:"status"`
	HangarNumber string      `json:"hangarNumber"`
	CheckIn      time.Time   `json:"checkIn"`
	CheckOut     time.Time   `json:"checkOut"`
	Nights       int         `json:"nights"`
	TotalPrice   float64     `json:"totalPrice"`
	BookingType  BookingType `json:"bookingType"`
}

type PaymentSummary struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentId string `json:"paymentIntentId"`
	PublishableKey  string `json:"publishableKey"`
}

// RequestError carries the HTTP status a failure should surface with,
// so transaction code can classify failures and route glue stays thin.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func NewRequestError(status int, message string) *RequestError {
	return &RequestError{Status: status, Message: message}
}

// StatusFor maps an error to a response code; untyped errors are
// internal failures.
func StatusFor(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return http.StatusInternalServerError
}

type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}
