package domain

type UserRole string

const (
	UserRoleClient UserRole = "client"
	UserRoleLawyer UserRole = "lawyer"
)

func (r UserRole) Valid() bool {
	return r == UserRoleClient || r == UserRoleLawyer
}

func (r UserRole) SenderRole() SenderRole {
	if r == UserRoleLawyer {
		return SenderRoleLawyer
	}
	return SenderRoleClient
}

// Principal is the signed-in user handle handed over by the identity provider.
type Principal struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"email_verified"`
	Role          UserRole `json:"role"`
}
