package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setlab/exposure/internal/schedule"
)

func TestLookup_AllCodes(t *testing.T) {
	tests := []struct {
		code        string
		primary     ExposureType
		instruction InstructionMode
		dominant    schedule.GroupLabel
	}{
		{"EL-R", ExposureEqual, InstructionLearned, schedule.GroupRed},
		{"EL-B", ExposureEqual, InstructionLearned, schedule.GroupBlue},
		{"EI-R", ExposureEqual, InstructionInstructed, schedule.GroupRed},
		{"EI-B", ExposureEqual, InstructionInstructed, schedule.GroupBlue},
		{"ML-R", ExposureMajorityMinority, InstructionLearned, schedule.GroupRed},
		{"ML-B", ExposureMajorityMinority, InstructionLearned, schedule.GroupBlue},
		{"MI-R", ExposureMajorityMinority, InstructionInstructed, schedule.GroupRed},
		{"MI-B", ExposureMajorityMinority, InstructionInstructed, schedule.GroupBlue},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			cond, ok := Lookup(tt.code)
			require.True(t, ok)
			assert.Equal(t, tt.code, cond.Code)
			assert.Equal(t, tt.primary, cond.Primary)
			assert.Equal(t, tt.instruction, cond.Instruction)
			assert.Equal(t, tt.dominant, cond.Dominant)
			assert.Equal(t, ExposureEqual, cond.Secondary, "baseline secondary is always equal")
		})
	}
}

func TestLookup_UnknownCode(t *testing.T) {
	_, ok := Lookup("XX-Z")
	assert.False(t, ok)
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	cond := Resolve("definitely-not-a-code")
	assert.Equal(t, DefaultConditionCode, cond.Code)
	assert.Equal(t, ExposureEqual, cond.Primary)
}

func TestResolve_KnownCodePassesThrough(t *testing.T) {
	cond := Resolve("MI-B")
	assert.Equal(t, "MI-B", cond.Code)
	assert.Equal(t, schedule.GroupBlue, cond.Dominant)
}

func TestCodes_Complete(t *testing.T) {
	codes := Codes()
	assert.Len(t, codes, 8)
	assert.Contains(t, codes, DefaultConditionCode)
}
