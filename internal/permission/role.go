package permission

import "fmt"

type Role string

const (
	RoleAdmin        Role = "admin"
	RoleManager      Role = "manager"
	RoleVeterinarian Role = "veterinarian"
	RoleReceptionist Role = "receptionist"
	RoleGroomer      Role = "groomer"
	RoleAccountant   Role = "accountant"
	RoleStaff        Role = "staff"
)

// Roles lists every role in display order.
var Roles = []Role{
	RoleAdmin,
	RoleManager,
	RoleVeterinarian,
	RoleReceptionist,
	RoleGroomer,
	RoleAccountant,
	RoleStaff,
}

func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}
