package types

// ------------------------------
// Response Types
// ------------------------------

// LoginResponse mirrors the auth service login payload.
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// RefreshResponse mirrors the auth service refresh payload.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// ProfileResponse wraps GET /profile.
type ProfileResponse struct {
	User UserProfile `json:"user"`
}

// ListSavedItemsResponse wraps GET /saved-items.
type ListSavedItemsResponse struct {
	Items []SavedItem `json:"items"`
}

// UpsertSavedItemResponse wraps POST /saved-items.
type UpsertSavedItemResponse struct {
	Item SavedItem `json:"item"`
}

// ErrorResponse is the shape of non-2xx bodies from both services; Message
// is surfaced verbatim for direct-action failures.
type ErrorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
