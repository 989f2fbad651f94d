// Package auth defines the caller identity used to gate order lifecycle
// operations.
package auth

import "context"

// Role describes what a caller is allowed to do.
type Role string

const (
	// RoleCustomer identifies a storefront shopper. Customers mutate their
	// own cart and may delete their own not-yet-delivered orders.
	RoleCustomer Role = "customer"
	// RoleOperator identifies back-office staff. Only operators advance
	// order status.
	RoleOperator Role = "operator"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	// Subject is the owner ID the caller acts as. Empty for operators
	// acting on behalf of the shop.
	Subject string
	Role    Role
}

// Operator reports whether the actor holds back-office privileges.
func (a Actor) Operator() bool {
	return a.Role == RoleOperator
}

// APIKeyInfo holds the identity and permission data for a validated API key.
type APIKeyInfo struct {
	ID      string
	KeyHash string
	Name    string
	Role    Role
	Subject string
}

// Actor converts the key record into the actor it authenticates.
func (k *APIKeyInfo) Actor() Actor {
	return Actor{Subject: k.Subject, Role: k.Role}
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKeyInfo, error)
}
