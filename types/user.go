package types

import "time"

// User represents a registered portal account.
// It contains identity, privilege, and registration metadata.
type User struct {
	// ID is the unique identifier of the user, assigned on insert.
	ID int `json:"id" db:"id"`

	// Email is the unique login key chosen by the user.
	Email string `json:"email" db:"email"`

	// Password holds the stored credential. Depending on the configured
	// scheme this is either the raw value or a bcrypt digest.
	// This field is never exposed in API responses.
	Password string `json:"-" db:"password"`

	// IsAdmin grants access to the admin portal.
	IsAdmin bool `json:"is_admin" db:"is_admin"`

	// ProfilePicture is the relative path of the uploaded picture
	// ("/uploads/<filename>"), or empty when none was submitted.
	ProfilePicture string `json:"profile_picture" db:"profile_picture"`

	// Declaration records whether the registration declaration box
	// was ticked.
	Declaration bool `json:"declaration" db:"declaration"`

	// Details carries the remaining registration form fields verbatim.
	Details map[string]string `json:"details" db:"details"`

	// CreatedAt is the timestamp when the account was registered.
	// Set exactly once, at insert.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
