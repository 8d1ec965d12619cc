// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered unique identifiers for the platform.

It wraps the google/uuid library to generate Version 7 values. Account ids,
published mail message ids and request ids all come from here.

  - Sortable: Naturally ordered by creation time (millisecond precision).
  - Friendly: Appends to the end of PostgreSQL B-tree indexes.
*/
package uuid

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}
