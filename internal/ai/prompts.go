// prompts.go - Instructions sent with single-field captures

package ai

import (
	"fmt"
	"sort"
	"strings"
)

// FieldKind names a single value that can be read off a photo
type FieldKind string

const (
	FieldVehicle   FieldKind = "vehicle"
	FieldKilometer FieldKind = "kilometer"
)

var fieldInstructions = map[FieldKind]string{
	FieldVehicle:   "Extract the vehicle license plate number from this image. Return only the numbers and letters in the format XX-XXX-XX or similar.",
	FieldKilometer: "Extract the kilometer/mileage reading from this vehicle dashboard image. Return only the numeric value.",
}

// InstructionFor returns the instruction for kind
func InstructionFor(kind FieldKind) (string, bool) {
	instruction, ok := fieldInstructions[kind]
	return instruction, ok
}

// FieldKinds lists the supported kinds in stable order
func FieldKinds() []FieldKind {
	kinds := make([]FieldKind, 0, len(fieldInstructions))
	for k := range fieldInstructions {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// ParseFieldKind accepts the wire name of a kind, case-insensitively
func ParseFieldKind(s string) (FieldKind, error) {
	kind := FieldKind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := fieldInstructions[kind]; !ok {
		return "", newError(KindUnknownFieldKind, "parse_field_kind", fmt.Sprintf("unsupported field kind %q", s))
	}
	return kind, nil
}
