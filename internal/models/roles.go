package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Role is a membership flag on an account. Roles are checked for set
// intersection, never ordered.
type Role int

const (
	// RoleDefault is assigned to every self-registered account.
	RoleDefault Role = iota
	// RoleAdmin grants access to administrative routes.
	RoleAdmin
)

// roleNames maps role codes to their external names.
var roleNames = map[Role]string{
	RoleDefault: "DEFAULT",
	RoleAdmin:   "ADMIN",
}

// String returns the external name of the role.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseRoles decodes a JSON role column into a role slice. Malformed
// payloads decode to an empty set.
func ParseRoles(raw datatypes.JSON) []Role {
	if len(raw) == 0 {
		return nil
	}
	var codes []int
	if errUnmarshal := json.Unmarshal(raw, &codes); errUnmarshal != nil {
		return nil
	}
	roles := make([]Role, 0, len(codes))
	for _, code := range codes {
		roles = append(roles, Role(code))
	}
	return roles
}

// EncodeRoles encodes a role slice into a JSON role column value.
func EncodeRoles(roles []Role) datatypes.JSON {
	if roles == nil {
		roles = []Role{}
	}
	payload, errMarshal := json.Marshal(roles)
	if errMarshal != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(payload)
}

// HasRole reports whether the set contains the given role.
func HasRole(roles []Role, want Role) bool {
	for _, role := range roles {
		if role == want {
			return true
		}
	}
	return false
}

// RoleNames maps a role set to its external names.
func RoleNames(roles []Role) []string {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.String())
	}
	return names
}
