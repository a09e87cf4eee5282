// SPDX-FileCopyrightText: 2025 The boostd Authors
// SPDX-License-Identifier: Apache-2.0

package boost

// Level selects how strongly the target process's scheduling priority
// is elevated. Valid levels are 0 through 3.
type Level int

const (
	LevelNone       Level = 0
	LevelSlight     Level = 1
	LevelModerate   Level = 2
	LevelAggressive Level = 3
)

// MaxLevel is the highest accepted boost level
const MaxLevel = LevelAggressive

// ClampLevel maps any integer onto a valid Level
func ClampLevel(v int) Level {
	if v < 0 {
		return LevelNone
	}
	if v > int(MaxLevel) {
		return MaxLevel
	}
	return Level(v)
}

// Nice returns the nice value for the level:
//
//	0 -> 0    default priority
//	1 -> -2   slightly increased priority
//	2 -> -5   higher priority
//	3 -> -10  aggressive boost
//
// The level is clamped before lookup, so a Level obtained by casting an
// arbitrary int still maps to a sane nice value.
func (l Level) Nice() int {
	switch ClampLevel(int(l)) {
	case LevelNone:
		return 0
	case LevelSlight:
		return -2
	case LevelModerate:
		return -5
	default:
		return -10
	}
}

func (l Level) String() string {
	switch ClampLevel(int(l)) {
	case LevelNone:
		return "none"
	case LevelSlight:
		return "slight"
	case LevelModerate:
		return "moderate"
	default:
		return "aggressive"
	}
}
