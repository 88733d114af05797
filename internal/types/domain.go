package types

import "time"

// ------------------------------
// Core Domain Entities
// ------------------------------

// UserProfile represents the authenticated user.
type UserProfile struct {
	ID            string       `json:"id"`
	Email         string       `json:"email"`
	Username      string       `json:"username,omitempty"`
	FirstName     string       `json:"firstName,omitempty"`
	LastName      string       `json:"lastName,omitempty"`
	DisplayName   string       `json:"displayName,omitempty"`
	EmailVerified bool         `json:"emailVerified"`
	Preferences   *Preferences `json:"preferences,omitempty"`
}

// Preferences holds the user's notification settings.
type Preferences struct {
	EmailAlerts       bool `json:"emailAlerts"`
	PropertyUpdates   bool `json:"propertyUpdates"`
	SavedSearchAlerts bool `json:"savedSearchAlerts"`
	Marketing         bool `json:"marketing"`
}

// Session is the client-held view of the current authentication state.
// A session is authenticated iff User is non-nil.
type Session struct {
	User *UserProfile `json:"user,omitempty"`
}

// Authenticated reports whether the session belongs to a signed-in user.
func (s *Session) Authenticated() bool { return s != nil && s.User != nil }

// PropertySnapshot is the listing data captured at save time so a saved
// property can be rendered without re-fetching the listing.
type PropertySnapshot struct {
	Title     string   `json:"title"`
	Location  string   `json:"location"`
	Price     string   `json:"price"`
	Bedrooms  int      `json:"bedrooms"`
	Bathrooms int      `json:"bathrooms"`
	Area      float64  `json:"area"`
	Images    []string `json:"images"`
	Notes     string   `json:"notes,omitempty"`
}

// SavedItem is one saved property. ItemID is unique within a collection;
// saving an already-saved ItemID replaces Snapshot and SavedAt in place.
type SavedItem struct {
	ItemID   string           `json:"itemId"`
	Snapshot PropertySnapshot `json:"snapshot"`
	SavedAt  time.Time        `json:"savedAt"`
}

// RegistrationResult is returned by a successful registration. Registration
// never authenticates; the account must be verified by email first.
type RegistrationResult struct {
	ID string `json:"id"`
}
