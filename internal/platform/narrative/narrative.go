// Package narrative extracts patient identities from free-text clinical notes
// in which line breaks are written as an inline [[new-line]] marker.
//
// Three independent rules are applied to the whole text:
//
//	Name:<name> NHS Number:<value>   name-first
//	NHS Number:<digits> <name>       number-first
//	NHS Number:<digits>              number alone, named "Unknown"
//
// The rules overlap on purpose. The same NHS number is usually reported by
// more than one rule; callers collapse duplicates with patient.Reconcile.
package narrative

import (
	"regexp"
	"strings"

	"github.com/ehr/nhsextract/internal/domain/patient"
)

// Fragments shared by the rules. Only the second word of the label tolerates
// a casing slip ("NUmber"); "NHS" must be upper case.
const (
	numberLabel = `NHS\s*(?:Number|NUmber):\s*`
	nameToken   = `(\w+(?:\s+\w+)?)`
)

var (
	lineBreakMarker = regexp.MustCompile(`\[\[(?i:new-line)\]\]`)

	nameFirstPattern   = regexp.MustCompile(`Name:\s*` + nameToken + `\s+` + numberLabel + `(\S+)`)
	numberFirstPattern = regexp.MustCompile(numberLabel + `(\d+)\s+` + nameToken)
	numberAlonePattern = regexp.MustCompile(numberLabel + `(\d+)`)
)

// NormalizeLineBreaks replaces every [[new-line]] marker, in any letter
// casing, with a newline character.
func NormalizeLineBreaks(text string) string {
	return lineBreakMarker.ReplaceAllLiteralString(text, "\n")
}

// Extract runs all three rules over text and returns their records in rule
// order: name-first matches, then number-first, then number-alone. The result
// is never nil.
func Extract(text string) []patient.Record {
	normalized := NormalizeLineBreaks(text)

	records := make([]patient.Record, 0)
	records = append(records, ExtractNameFirst(normalized)...)
	records = append(records, ExtractNumberFirst(normalized)...)
	records = append(records, ExtractNumberAlone(normalized)...)
	return records
}

// ExtractNameFirst matches "Name:<name> NHS Number:<value>". The value may
// carry non-digit noise; it is normalized and can end up empty.
func ExtractNameFirst(text string) []patient.Record {
	var records []patient.Record
	for _, m := range nameFirstPattern.FindAllStringSubmatch(text, -1) {
		records = append(records, patient.NewRecord(strings.TrimSpace(m[1]), m[2]))
	}
	return records
}

// ExtractNumberFirst matches "NHS Number:<digits> <name>", where the name
// follows the number in the surrounding prose.
func ExtractNumberFirst(text string) []patient.Record {
	var records []patient.Record
	for _, m := range numberFirstPattern.FindAllStringSubmatch(text, -1) {
		records = append(records, patient.NewRecord(strings.TrimSpace(m[2]), m[1]))
	}
	return records
}

// ExtractNumberAlone reports every "NHS Number:<digits>" in text under the
// Unknown name, including numbers already claimed by the other rules.
func ExtractNumberAlone(text string) []patient.Record {
	var records []patient.Record
	for _, m := range numberAlonePattern.FindAllStringSubmatch(text, -1) {
		records = append(records, patient.NewUnnamedRecord(m[1]))
	}
	return records
}
