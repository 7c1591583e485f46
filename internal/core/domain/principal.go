package domain

// PrincipalKind tags which authentication domain a Principal came from.
type PrincipalKind int

const (
	PrincipalUser PrincipalKind = iota + 1
	PrincipalAdmin
)

func (k PrincipalKind) String() string {
	switch k {
	case PrincipalUser:
		return "user"
	case PrincipalAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Principal is the identity attached to a request once its bearer token has
// been verified and its subject re-loaded from the credential store.
type Principal struct {
	Kind       PrincipalKind
	ID         string
	Username   string
	EndpointID string // empty for admins
}

// IsTenant reports whether the principal may reach a tenant resource.
// Only user principals with a non-empty endpoint qualify.
func (p Principal) IsTenant() bool {
	return p.Kind == PrincipalUser && p.EndpointID != ""
}

// UserPrincipal projects a stored user into a request principal.
func UserPrincipal(u *User) Principal {
	return Principal{Kind: PrincipalUser, ID: u.ID, Username: u.Username, EndpointID: u.EndpointID}
}

// AdminPrincipal projects a stored admin into a request principal.
func AdminPrincipal(a *Admin) Principal {
	return Principal{Kind: PrincipalAdmin, ID: a.ID, Username: a.Username}
}
