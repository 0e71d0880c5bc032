package models

import (
	"hangarhub/src/types"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

type Hangar struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	HangarNumber  string  `json:"hangar_number,omitempty"`
	Slug          string  `gorm:"uniqueIndex" json:"slug,omitempty"`
	AirportCode   string  `json:"airport_code,omitempty"`
	Description   *string `json:"description,omitempty"`
	PricePerNight float64 `json:"price_per_night,omitempty"`
	Available     bool    `gorm:"default:true" json:"available,omitempty"`
	OwnerID       uint    `json:"owner_id,omitempty"`

	Owner    *User      `gorm:"foreignKey:owner_id" json:"-"`
	Bookings []*Booking `gorm:"foreignKey:hangar_id" json:"bookings,omitempty"`

	types.Timestamps
}

func (h *Hangar) BeforeCreate(tx *gorm.DB) error {
	if h.Slug == "" {
		h.Slug = slug.Make(h.AirportCode + "-" + h.HangarNumber)
	}
	return nil
}
