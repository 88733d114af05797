package sessionkit

import "github.com/glodinasflexwork/sessionkit/internal/types"

// Public type aliases so SDK consumers import only the sessionkit package.
type (
	// Domain entities
	UserProfile      = types.UserProfile
	Preferences      = types.Preferences
	Session          = types.Session
	SavedItem        = types.SavedItem
	PropertySnapshot = types.PropertySnapshot

	// Results
	RegistrationResult = types.RegistrationResult
)

// ProfileUpdate is a partial profile; nil fields are left untouched by
// SessionManager.UpdateUser.
type ProfileUpdate struct {
	Email         *string
	FirstName     *string
	LastName      *string
	DisplayName   *string
	EmailVerified *bool
	Preferences   *Preferences
}
