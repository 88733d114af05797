package types

import "time"

// ------------------------------
// Request Types
// ------------------------------

// LoginRequest is the body for POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body for POST /register.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// UpsertSavedItemRequest is the body for POST /saved-items.
type UpsertSavedItemRequest struct {
	ItemID   string           `json:"itemId"`
	Snapshot PropertySnapshot `json:"snapshot"`
	SavedAt  time.Time        `json:"savedAt"`
}
