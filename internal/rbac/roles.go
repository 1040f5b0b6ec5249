package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts and stored on users.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

func IsAdmin(role string) bool { return role == RoleAdmin }

func IsValidRole(role string) bool { return role == RoleAdmin || role == RoleCustomer }
