// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"time"

	"healthtrack/config"
	domainerrors "healthtrack/internal/domain/errors"
	"healthtrack/internal/domain/service"
	"healthtrack/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptInputLimit is the longest input bcrypt accepts.
const bcryptInputLimit = 72

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost    int
	timeout time.Duration
}

// NewBcryptHasher is the constructor for bcryptHasher, configured from the auth section.
func NewBcryptHasher(cfg *config.Config) (service.PasswordHasher, error) {
	cost := bcrypt.DefaultCost
	var timeout time.Duration
	if cfg != nil && cfg.Auth != nil {
		cost = cfg.Auth.BcryptCost
		timeout = cfg.Auth.HashTimeout
	}

	return NewBcryptHasherWithCost(cost, timeout)
}

// NewBcryptHasherWithCost builds a hasher with an explicit work factor.
// A zero timeout leaves the bound to the caller's context.
func NewBcryptHasherWithCost(cost int, timeout time.Duration) (service.PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, errors.Errorf("bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}

	return &bcryptHasher{cost: cost, timeout: timeout}, nil
}

// Hash generates a salted hash from a plaintext password using bcrypt.
func (h *bcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	return runBounded(ctx, h.timeout, func() (string, error) {
		hash, err := bcrypt.GenerateFromPassword(prepare(password), h.cost)
		if err != nil {
			return "", errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
		}

		return string(hash), nil
	})
}

// Check compares a plaintext password with a bcrypt hash.
// A mismatch is (false, nil); a malformed stored hash is an error.
func (h *bcryptHasher) Check(ctx context.Context, password, hash string) (bool, error) {
	return runBounded(ctx, h.timeout, func() (bool, error) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), prepare(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
		}
	})
}

// runBounded runs fn on its own goroutine so a slow hash gives up on ctx or the
// timeout instead of holding the caller.
func runBounded[T any](ctx context.Context, timeout time.Duration, fn func() (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		if errors.IsDeadline(ctx.Err()) {
			return zero, domainerrors.ErrTimeout.WrapMessage("password hashing exceeded its time bound")
		}

		return zero, errors.Wrap(ctx.Err(), "password hashing cancelled")
	}
}

// prepare passes passwords up to bcryptInputLimit bytes through unchanged, so
// those hashes stay interchangeable with any other bcrypt implementation.
// Longer ones are reduced to a fixed-length SHA-256 digest first.
func prepare(password string) []byte {
	if len(password) <= bcryptInputLimit {
		return []byte(password)
	}
	sum := sha256.Sum256([]byte(password))

	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
