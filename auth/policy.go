package auth

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Capability names one privileged action.
type Capability string

const (
	ManageCatalog Capability = "manage_catalog"
	ManageOrders  Capability = "manage_orders"
	ViewAllOrders Capability = "view_all_orders"
	ExportReports Capability = "export_reports"
)

var grants = map[Role][]Capability{
	RoleAdmin:    {ManageCatalog, ManageOrders, ViewAllOrders, ExportReports},
	RoleCustomer: nil,
}

func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleCustomer, "":
		return RoleCustomer, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Can reports whether role holds capability.
func Can(role Role, capability Capability) bool {
	for _, c := range grants[role] {
		if c == capability {
			return true
		}
	}
	return false
}
