// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "fmt"

// Status is the lifecycle state of an [Account].
type Status string

const (
	StatusCreated     Status = "CREATED"
	StatusActivated   Status = "ACTIVATED"
	StatusDeactivated Status = "DEACTIVATED"
	StatusBlocked     Status = "BLOCKED"
)

// transitions lists every permitted move. Anything absent is rejected.
var transitions = map[Status]map[Status]struct{}{
	StatusCreated: {
		StatusActivated:   {},
		StatusDeactivated: {},
		StatusBlocked:     {},
	},
	StatusActivated: {
		StatusDeactivated: {},
		StatusBlocked:     {},
	},
	StatusDeactivated: {
		StatusActivated: {},
		StatusBlocked:   {},
	},
	StatusBlocked: {
		StatusActivated:   {},
		StatusDeactivated: {},
	},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether an account may move from one status to another.
func CanTransition(from, to Status) bool {
	targets, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// Transition validates the move and returns the new status.
func Transition(from, to Status) (Status, error) {
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return to, nil
}

// signInError maps a non-activated status to the error sign-in reports for it.
func signInError(status Status) error {
	switch status {
	case StatusActivated:
		return nil
	case StatusCreated:
		return ErrEmailNotVerified
	case StatusBlocked:
		return ErrUserBlocked
	case StatusDeactivated:
		return ErrUserDeactivated
	default:
		return ErrBadUserStatus
	}
}
