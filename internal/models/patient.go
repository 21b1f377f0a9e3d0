package models

// Patient is an account that posts and manages donation requests.
type Patient struct {
	Account
	DonationRequests []DonationRequest `json:"-" gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
