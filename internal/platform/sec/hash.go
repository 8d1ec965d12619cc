// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// ErrPasswordTooLong is returned by [BcryptHasher.Hash] for input over
// [MaxPasswordBytes].
var ErrPasswordTooLong = errors.New("sec: password exceeds 72 bytes")

// BcryptHasher hashes and verifies account passwords with bcrypt.
//
// # Cost
//
// The cost factor is fixed at construction. Hashing is CPU-bound and runs on
// the calling goroutine, so the cost directly bounds sign-up and sign-in latency.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, clamped to the bcrypt limits.
// A zero cost selects [bcrypt.DefaultCost].
func NewBcryptHasher(cost int) *BcryptHasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns the bcrypt hash of a plain-text password.
func (hasher *BcryptHasher) Hash(plainTextPassword string) (string, error) {
	if len(plainTextPassword) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), hasher.cost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// Matches compares a plain-text password with its hashed version.
func (hasher *BcryptHasher) Matches(plainTextPassword, existingHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	return err == nil
}

// Cost reports the configured bcrypt work factor.
func (hasher *BcryptHasher) Cost() int {
	return hasher.cost
}
