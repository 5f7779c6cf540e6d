package domain

import "fmt"

type Role int

const (
	RoleAdmin Role = iota + 1
	RoleStaff
)

func ParseRole(s string) (Role, error) {
	switch s {
	case "admin":
		return RoleAdmin, nil
	case "staff":
		return RoleStaff, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, s)
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleStaff:
		return "staff"
	}
	return "unknown"
}

// CacheKeyPrefix namespaces cached views whose shape depends on the role.
func (r Role) CacheKeyPrefix() string {
	return r.String() + "_"
}

type Ability string

const (
	AbilityViewAnyItem        Ability = "viewAny:item"
	AbilityViewItem           Ability = "view:item"
	AbilityCreateItem         Ability = "create:item"
	AbilityUpdateItem         Ability = "update:item"
	AbilityDeleteItem         Ability = "delete:item"
	AbilityViewAnyTransaction Ability = "viewAny:transaction"
	AbilityViewTransaction    Ability = "view:transaction"
	AbilityCreateTransaction  Ability = "create:transaction"
	AbilityDeleteTransaction  Ability = "delete:transaction"
)

var staffAbilities = map[Ability]bool{
	AbilityViewAnyItem:        true,
	AbilityViewItem:           true,
	AbilityViewAnyTransaction: true,
	AbilityViewTransaction:    true,
	AbilityCreateTransaction:  true,
}

func (r Role) Can(a Ability) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleStaff:
		return staffAbilities[a]
	}
	return false
}

// User is the caller as asserted by the gateway.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"-"`
}

type UserSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
