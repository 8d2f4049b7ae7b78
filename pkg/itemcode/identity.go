package itemcode

import (
	"fmt"
	"slices"

	"lostfound/pkg/domain"
)

// Identity domains of the finder triple and the indoor floor range.
const (
	MaxGrade    = 6
	MaxClass    = 13
	MaxStudent  = 44
	MaxFloor    = 5
	firstFloor  = 1
	firstNumber = 1
)

// Grades lists "1".."6".
func Grades() []string { return enumerate(firstNumber, MaxGrade, "%d") }

// Classes lists "01".."13".
func Classes() []string { return enumerate(firstNumber, MaxClass, "%02d") }

// Students lists "01".."44".
func Students() []string { return enumerate(firstNumber, MaxStudent, "%02d") }

// Floors lists the selectable floors for a location.
func Floors(outdoor bool) []string {
	if outdoor {
		return []string{OutdoorFloor}
	}
	return enumerate(firstFloor, MaxFloor, "%d")
}

// DefaultFloor is the floor preselected for a location.
func DefaultFloor(outdoor bool) string {
	return Floors(outdoor)[0]
}

// ValidateFloor checks floor against the location's range.
func ValidateFloor(floor string, outdoor bool) error {
	if slices.Contains(Floors(outdoor), floor) {
		return nil
	}
	if outdoor {
		return domain.ValidationError{Field: "floor", Reason: fmt.Sprintf("outdoor locations only allow floor %s, got %q", OutdoorFloor, floor)}
	}
	return domain.ValidationError{Field: "floor", Reason: fmt.Sprintf("indoor floor must be 1-%d, got %q", MaxFloor, floor)}
}

// ValidateFinder checks the finder triple against its fixed domains.
func ValidateFinder(grade, classNum, studentID string) error {
	switch {
	case !slices.Contains(Grades(), grade):
		return domain.ValidationError{Field: "grade", Reason: fmt.Sprintf("must be 1-%d, got %q", MaxGrade, grade)}
	case !slices.Contains(Classes(), classNum):
		return domain.ValidationError{Field: "classNum", Reason: fmt.Sprintf("must be 01-%02d, got %q", MaxClass, classNum)}
	case !slices.Contains(Students(), studentID):
		return domain.ValidationError{Field: "studentId", Reason: fmt.Sprintf("must be 01-%02d, got %q", MaxStudent, studentID)}
	}
	return nil
}

func enumerate(from, to int, format string) []string {
	out := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf(format, i))
	}
	return out
}
