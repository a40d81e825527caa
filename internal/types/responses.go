package types

import "time"

// TradeResponse is a reconciled trade together with any data-integrity
// warnings the reconciliation detected (for example a sell exceeding the
// cumulative bought quantity).
type TradeResponse struct {
	Trade    Trade    `json:"trade"`
	Warnings []string `json:"warnings,omitempty"`
}

// TokenResponse represents the session token returned on sign-up and sign-in
type TokenResponse struct {
	Token      string    `json:"access_token"`
	Expiration time.Time `json:"expiration"`
	User       User      `json:"user"`
}

// UploadResponse is returned after a successful attachment upload
type UploadResponse struct {
	URL       string    `json:"url"`
	SignedURL string    `json:"signed_url"`
	ExpiresAt time.Time `json:"expires_at"`
}
