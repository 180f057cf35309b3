package design

import (
	"log/slog"

	"github.com/setlab/exposure/internal/schedule"
)

// ExposureType selects how a phase's color groups are sized.
type ExposureType string

const (
	// ExposureEqual splits the phase pool evenly between the groups.
	ExposureEqual ExposureType = "equal"

	// ExposureMajorityMinority gives the dominant group the majority share
	// and the other group the configured minority share.
	ExposureMajorityMinority ExposureType = "majority_minority"
)

// InstructionMode selects how participants learn the hidden classes.
type InstructionMode string

const (
	// InstructionLearned: classes are learned from trial-and-error feedback.
	InstructionLearned InstructionMode = "learned"

	// InstructionInstructed: the class base rates are described up front.
	InstructionInstructed InstructionMode = "instructed"
)

// Condition is the decoded experimental condition for one session.
// Fields are closed enums; an unhandled combination is a compile-time case
// in a switch, not a runtime lookup miss.
type Condition struct {
	Code        string              `json:"code"`
	Primary     ExposureType        `json:"primary"`
	Instruction InstructionMode     `json:"instruction"`
	Secondary   ExposureType        `json:"secondary"`
	Dominant    schedule.GroupLabel `json:"dominant"`
}

// DefaultConditionCode is the fallback for unrecognized codes.
const DefaultConditionCode = "EL-R"

// codebook maps compact condition codes to their decoded records.
// First letter: primary exposure (E equal, M majority-minority).
// Second letter: instruction mode (L learned, I instructed).
// Suffix: dominant group color.
//
// The secondary phase uses equal exposure in every baseline condition; a
// majority-minority secondary is a custom design file concern, validated
// against the composition list by Spec.Validate.
var codebook = map[string]Condition{
	"EL-R": {Primary: ExposureEqual, Instruction: InstructionLearned, Secondary: ExposureEqual, Dominant: schedule.GroupRed},
	"EL-B": {Primary: ExposureEqual, Instruction: InstructionLearned, Secondary: ExposureEqual, Dominant: schedule.GroupBlue},
	"EI-R": {Primary: ExposureEqual, Instruction: InstructionInstructed, Secondary: ExposureEqual, Dominant: schedule.GroupRed},
	"EI-B": {Primary: ExposureEqual, Instruction: InstructionInstructed, Secondary: ExposureEqual, Dominant: schedule.GroupBlue},
	"ML-R": {Primary: ExposureMajorityMinority, Instruction: InstructionLearned, Secondary: ExposureEqual, Dominant: schedule.GroupRed},
	"ML-B": {Primary: ExposureMajorityMinority, Instruction: InstructionLearned, Secondary: ExposureEqual, Dominant: schedule.GroupBlue},
	"MI-R": {Primary: ExposureMajorityMinority, Instruction: InstructionInstructed, Secondary: ExposureEqual, Dominant: schedule.GroupRed},
	"MI-B": {Primary: ExposureMajorityMinority, Instruction: InstructionInstructed, Secondary: ExposureEqual, Dominant: schedule.GroupBlue},
}

// Lookup decodes a condition code. Pure function, no fallback: the second
// return value reports whether the code is in the codebook.
func Lookup(code string) (Condition, bool) {
	cond, ok := codebook[code]
	if !ok {
		return Condition{}, false
	}
	cond.Code = code
	return cond, true
}

// Resolve decodes a condition code, falling back to DefaultConditionCode
// with a warning when the code is unrecognized. The warning is a non-fatal
// side signal; an unknown code never halts a session.
func Resolve(code string) Condition {
	if cond, ok := Lookup(code); ok {
		return cond
	}
	slog.Warn("unrecognized condition code, using default",
		"code", code,
		"default", DefaultConditionCode,
	)
	cond, _ := Lookup(DefaultConditionCode)
	return cond
}

// Codes returns all known condition codes. Used by CLI help and tests.
func Codes() []string {
	codes := make([]string, 0, len(codebook))
	for code := range codebook {
		codes = append(codes, code)
	}
	return codes
}
