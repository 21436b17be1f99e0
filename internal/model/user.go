package model

import "time"

// Profile is a row of chats.profiles. FMCToken is the FCM registration token
// of the user's device and may be empty.
type Profile struct {
	ID       string `db:"id" json:"id"`
	FMCToken string `db:"fmc_token" json:"-"`
}

// Offer is a row of jobs.offers.
type Offer struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Name   string `db:"name" json:"name"`
}

// Recipient is the resolved target of a notification.
type Recipient struct {
	ProfileID   string
	DeviceToken string
	// Offer is set for offer-contact notifications.
	Offer *Offer
}

// ServiceAccountCredential is the subset of a Google service account key
// file needed to call FCM.
type ServiceAccountCredential struct {
	ClientEmail string `json:"client_email" validate:"required,email"`
	PrivateKey  string `json:"private_key" validate:"required"`
	ProjectID   string `json:"project_id" validate:"required"`
}

// AccessToken is a short-lived OAuth2 bearer token.
type AccessToken struct {
	Value  string
	Expiry time.Time
}
