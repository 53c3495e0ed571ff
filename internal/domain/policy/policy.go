// Package policy maps roles to the capabilities they are granted.
//
// The table is fixed at build time. Unknown roles and unknown capabilities are
// always denied.
package policy

import (
	"slices"

	"github.com/iconic-inc/iconic-erp-sub003/internal/domain/entity"
)

// Capability names a feature area that can be granted to roles.
type Capability string

const (
	EmployeeManagement    Capability = "employee-management"
	AttendanceManagement  Capability = "attendance-management"
	AttendanceSelf        Capability = "attendance-self"
	CaseServices          Capability = "case-services"
	TaskManagement        Capability = "task-management"
	TransactionManagement Capability = "transaction-management"
	DocumentManagement    Capability = "document-management"
	RewardManagement      Capability = "reward-management"
	RewardView            Capability = "reward-view"
	RoleManagement        Capability = "role-management"
	SessionSelf           Capability = "session-self"
	SessionAdministration Capability = "session-administration"
)

var grants = map[Capability][]entity.Role{
	EmployeeManagement:    {entity.RoleAdmin},
	AttendanceManagement:  {entity.RoleAdmin},
	AttendanceSelf:        {entity.RoleAdmin, entity.RoleEmployee, entity.RoleAccountant},
	CaseServices:          {entity.RoleAdmin, entity.RoleEmployee, entity.RoleAccountant, entity.RoleCustomer},
	TaskManagement:        {entity.RoleAdmin, entity.RoleEmployee},
	TransactionManagement: {entity.RoleAdmin, entity.RoleAccountant},
	DocumentManagement:    {entity.RoleAdmin, entity.RoleEmployee, entity.RoleAccountant},
	RewardManagement:      {entity.RoleAdmin},
	RewardView:            {entity.RoleAdmin, entity.RoleEmployee},
	RoleManagement:        {entity.RoleAdmin},
	SessionSelf:           {entity.RoleAdmin, entity.RoleEmployee, entity.RoleAccountant, entity.RoleCustomer},
	SessionAdministration: {entity.RoleAdmin},
}

// IsAllowed reports whether role is granted capability.
func IsAllowed(role entity.Role, capability Capability) bool {
	roles, ok := grants[capability]
	if !ok {
		return false
	}

	return slices.Contains(roles, role)
}

// IsKnown reports whether the capability exists in the table.
func IsKnown(capability Capability) bool {
	_, ok := grants[capability]

	return ok
}

// CapabilitiesFor lists the capabilities granted to role in a stable order.
func CapabilitiesFor(role entity.Role) []Capability {
	var out []Capability
	for capability, roles := range grants {
		if slices.Contains(roles, role) {
			out = append(out, capability)
		}
	}
	slices.Sort(out)

	return out
}
