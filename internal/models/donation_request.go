package models

import "time"

// DonationRequest describes an item a patient needs.
type DonationRequest struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Item         string    `json:"item" gorm:"size:150;not null"`
	Description  string    `json:"description" gorm:"type:text"`
	UrgencyLevel string    `json:"urgency_level" gorm:"size:50;not null"`
	ContactInfo  string    `json:"contact_info" gorm:"size:150;not null"`
	OwnerID      uint      `json:"owner_id" gorm:"index;not null"` // Foreign key to Patient.ID
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
