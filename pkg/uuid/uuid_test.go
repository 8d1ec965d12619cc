// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	googleuuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-auth/pkg/uuid"
)

func TestNew_IsTimeOrderedVersion7(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	parsed, err := googleuuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, googleuuid.Version(7), parsed.Version())

	assert.NotEqual(t, first, second)
	assert.LessOrEqual(t, first[:13], second[:13])
}
