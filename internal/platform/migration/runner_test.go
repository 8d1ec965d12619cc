// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPgx5URL(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/yomira":   "pgx5://u:p@db:5432/yomira",
		"postgresql://u:p@db:5432/yomira": "pgx5://u:p@db:5432/yomira",
		"pgx5://u:p@db:5432/yomira":       "pgx5://u:p@db:5432/yomira",
		"host=db user=u dbname=yomira":    "host=db user=u dbname=yomira",
	}

	for input, want := range tests {
		assert.Equal(t, want, toPgx5URL(input), input)
	}
}

func TestRunDown_RejectsNonPositiveSteps(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := RunDown("postgres://localhost/yomira", "./data/migrations", 0, logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps must be positive")
}
