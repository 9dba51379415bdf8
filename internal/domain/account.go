package domain

import "time"

// ProviderLocal marks an account registered with email and password.
const ProviderLocal = "local"

// RoleUser is the only role assigned by this service.
const RoleUser = "ROLE_USER"

// Account is a local identity record. Values are not mutated in place;
// changes are expressed by returning a modified copy.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Nickname     string    `json:"nickname"`
	Role         string    `json:"role"`
	Provider     string    `json:"provider"`
	ProviderID   string    `json:"providerId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsLocal reports whether the account was registered with a password.
func (a Account) IsLocal() bool {
	return a.Provider == ProviderLocal
}

// WithSocialLink returns a copy of a linked to the given provider subject.
// A local account keeps its local provenance; only the subject id changes.
func (a Account) WithSocialLink(provider, subjectID string, now time.Time) Account {
	linked := a
	if !a.IsLocal() {
		linked.Provider = provider
	}
	linked.ProviderID = subjectID
	linked.UpdatedAt = now
	return linked
}
