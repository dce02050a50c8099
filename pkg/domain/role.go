package domain

import dErrors "tracelink/pkg/domain-errors"

// Role is the closed set of participant roles. A participant is assigned
// exactly one role at registration and keeps it for life; authorization sites
// switch exhaustively over this set rather than dispatching dynamically.
type Role string

const (
	RoleSupplier    Role = "supplier"
	RoleTransporter Role = "transporter"
	RoleWarehouse   Role = "warehouse"
	RoleRetailer    Role = "retailer"
	RoleAuditor     Role = "auditor"
)

// validRoles is the single source of truth for the role set.
var validRoles = map[Role]bool{
	RoleSupplier:    true,
	RoleTransporter: true,
	RoleWarehouse:   true,
	RoleRetailer:    true,
	RoleAuditor:     true,
}

// ParseRole constructs a Role from external input. Direct casting bypasses
// validation; use this at trust boundaries.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }
