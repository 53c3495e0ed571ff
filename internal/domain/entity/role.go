// Package entity contains the core business objects of the project.
package entity

import "slices"

// Role is the slug of the single role a principal holds.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
	RoleAccountant Role = "accountant"
	RoleCustomer   Role = "customer"
)

var knownRoles = []Role{RoleAdmin, RoleEmployee, RoleAccountant, RoleCustomer}

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is one of the known slugs.
func (r Role) IsValid() bool {
	return slices.Contains(knownRoles, r)
}

// KnownRoles returns every role slug the system recognises.
func KnownRoles() []Role {
	return slices.Clone(knownRoles)
}

// RoleDefinition is the stored description of a role.
type RoleDefinition struct {
	Slug Role
	Name string
}
