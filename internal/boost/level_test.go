// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package boost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampLevel(t *testing.T) {
	tt := []struct {
		in   int
		want Level
	}{
		{-100, LevelNone},
		{-1, LevelNone},
		{0, LevelNone},
		{1, LevelSlight},
		{2, LevelModerate},
		{3, LevelAggressive},
		{4, LevelAggressive},
		{100, LevelAggressive},
	}
	for _, tc := range tt {
		assert.Equal(t, tc.want, ClampLevel(tc.in), "clamp(%d)", tc.in)
	}
}

func TestLevelNice(t *testing.T) {
	assert.Equal(t, 0, LevelNone.Nice())
	assert.Equal(t, -2, LevelSlight.Nice())
	assert.Equal(t, -5, LevelModerate.Nice())
	assert.Equal(t, -10, LevelAggressive.Nice())

	// stronger boost means more eager scheduling
	assert.Greater(t, LevelNone.Nice(), LevelSlight.Nice())
	assert.Greater(t, LevelSlight.Nice(), LevelModerate.Nice())
	assert.Greater(t, LevelModerate.Nice(), LevelAggressive.Nice())

	// out of range levels are clamped before lookup
	assert.Equal(t, 0, Level(-7).Nice())
	assert.Equal(t, -10, Level(42).Nice())
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "none", LevelNone.String())
	assert.Equal(t, "aggressive", Level(17).String())
}
