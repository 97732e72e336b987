// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import "context"

// PasswordHasher defines the interface for password hashing and verification.
// Both operations are deliberately slow; implementations honour ctx and return
// domainerrors.ErrTimeout when it expires first.
type PasswordHasher interface {
	// Hash generates a salted one-way hash from a plaintext password.
	Hash(ctx context.Context, password string) (string, error)

	// Check compares a plaintext password with a hash in constant time.
	Check(ctx context.Context, password, hash string) (bool, error)
}
