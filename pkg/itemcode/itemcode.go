// Package itemcode composes and decomposes lost item identifiers of the form
// T-LF-YYMMDDHHmm-GCCNN.
//
// T is the category code, L the location code, F the floor digit, followed by
// the local found time and the finder's grade, class and student number.
// Unset rule codes render as "?" and a missing time renders as
// "0000000000", so a preview can be composed before every input is known.
package itemcode

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"lostfound/pkg/domain"
)

const (
	// Separator joins the four code segments.
	Separator = "-"
	// Unknown marks an unset rule code or a missing decomposed segment.
	Unknown = "?"
	// TimeSentinel stands in for a missing timestamp.
	TimeSentinel = "0000000000"
	// OutdoorFloor is the only floor allowed at outdoor locations.
	OutdoorFloor = "0"

	timeLayout = "0601021504"
)

// Components are the inputs of a generated code.
type Components struct {
	CategoryCode string
	LocationCode string
	Floor        string
	// Timestamp is formatted in its own location. The zero value selects TimeSentinel.
	Timestamp time.Time
	Grade     string
	ClassNum  string
	StudentID string
}

// Segments are the four separator-delimited parts of a code.
type Segments struct {
	TypePart   string `json:"typePart"`
	LocPart    string `json:"locPart"`
	TimePart   string `json:"timePart"`
	PersonPart string `json:"personPart"`
}

// Compose builds the canonical code string. It is pure.
func Compose(c Components) string {
	var b strings.Builder
	b.WriteString(orUnknown(c.CategoryCode))
	b.WriteString(Separator)
	b.WriteString(orUnknown(c.LocationCode))
	b.WriteString(c.Floor)
	b.WriteString(Separator)
	b.WriteString(TimeSegment(c.Timestamp))
	b.WriteString(Separator)
	b.WriteString(c.Grade)
	b.WriteString(c.ClassNum)
	b.WriteString(c.StudentID)
	return b.String()
}

// TimeSegment renders t as YYMMDDHHmm in t's location.
func TimeSegment(t time.Time) string {
	if t.IsZero() {
		return TimeSentinel
	}
	return t.Format(timeLayout)
}

// Decompose splits a code on the separator. Missing or empty segments are
// reported as Unknown and segments are never validated against rules.
func Decompose(code string) Segments {
	parts := strings.Split(code, Separator)
	at := func(i int) string {
		if i < len(parts) && parts[i] != "" {
			return parts[i]
		}
		return Unknown
	}
	return Segments{
		TypePart:   at(0),
		LocPart:    at(1),
		TimePart:   at(2),
		PersonPart: at(3),
	}
}

// String joins the segments back with the separator.
func (s Segments) String() string {
	return strings.Join([]string{s.TypePart, s.LocPart, s.TimePart, s.PersonPart}, Separator)
}

// NormalizeCode reduces raw input to its first character upper-cased.
// Empty or blank input yields the empty code. Only A-Z and 0-9 are accepted.
func NormalizeCode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	r, _ := utf8.DecodeRuneInString(raw)
	r = unicode.ToUpper(r)
	if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
		return "", domain.ValidationError{Field: "code", Reason: fmt.Sprintf("%q is not an uppercase alphanumeric character", r)}
	}
	return string(r), nil
}

// FinderLabel renders the finder display string, e.g. "2年03班 07号".
func FinderLabel(grade, classNum, studentID string) string {
	return fmt.Sprintf("%s年%s班 %s号", grade, classNum, studentID)
}

func orUnknown(code string) string {
	if code == "" {
		return Unknown
	}
	return code
}
