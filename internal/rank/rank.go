// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank turns raw MaRDI bindings into the short list of classified
// formulas handed to the tutor agent. Ranking is insertion order: the first
// N bindings that survive cleaning win. Nothing here does I/O or keeps state.
package rank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/mardi-search/internal/texclean"
	"github.com/pdiddy/mardi-search/pkg/types"
)

const (
	// DefaultCap is the maximum number of records returned when the caller
	// does not ask for a specific limit.
	DefaultCap = 10

	// MinTeXLength is the quality gate: shorter snippets are noise such as
	// a lone variable name.
	MinTeXLength = 5

	// UnknownID labels records whose binding had no formulaLabel.
	UnknownID = "Unknown"
)

// boundMarkers flag a snippet as an inequality or bound.
var boundMarkers = []string{"<", ">", `\le`, `\ge`}

// Rank extracts TeX from each binding, drops low-quality items, classifies
// the rest, and returns at most limit records in input order. A limit of
// zero or less means DefaultCap.
func Rank(bindings []types.RawBinding, limit int) []types.ResultRecord {
	if limit <= 0 {
		limit = DefaultCap
	}

	records := make([]types.ResultRecord, 0, min(len(bindings), limit))
	for _, b := range bindings {
		if len(records) == limit {
			break
		}
		r, ok := buildRecord(b)
		if !ok {
			continue
		}
		records = append(records, r)
	}
	return records
}

// buildRecord applies the length gate, the "}}" cleanup, and classification
// to one binding.
func buildRecord(b types.RawBinding) (types.ResultRecord, bool) {
	tex := texclean.Extract(types.ValueOr(b.MathExpression, ""))
	if utf8.RuneCountInString(tex) < MinTeXLength {
		return types.ResultRecord{}, false
	}

	tex = strings.ReplaceAll(tex, "}}", "")
	// The "}}" pass can shorten a snippet below the gate; such records
	// would break the minimum-length guarantee of the output.
	if utf8.RuneCountInString(tex) < MinTeXLength {
		return types.ResultRecord{}, false
	}

	return types.ResultRecord{
		ID:          types.ValueOr(b.Label, UnknownID),
		TeX:         tex,
		Description: types.ValueOr(b.Description, ""),
		Link:        types.ValueOr(b.Formula, ""),
		Type:        Classify(tex),
	}, true
}

// Classify labels tex as a condition/bound when it contains a comparison,
// and as a definition/identity otherwise.
func Classify(tex string) types.FormulaType {
	for _, m := range boundMarkers {
		if strings.Contains(tex, m) {
			return types.TypeCondition
		}
	}
	return types.TypeDefinition
}

// FormatJSON writes records as a 2-space indented JSON array. HTML
// characters are not escaped so "<" in TeX stays readable for the agent.
func FormatJSON(records []types.ResultRecord, w io.Writer) error {
	if records == nil {
		records = []types.ResultRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

// JSON returns the FormatJSON rendering without the trailing newline.
func JSON(records []types.ResultRecord) (string, error) {
	var buf bytes.Buffer
	if err := FormatJSON(records, &buf); err != nil {
		return "", fmt.Errorf("encoding records: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.ResultRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No formulas found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-30s  %-20s  %s\n", "Rank", "ID", "Type", "TeX")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range records {
		fmt.Fprintf(w, "%-4d  %-30s  %-20s  %s\n",
			i+1, truncate(r.ID, 30), r.Type, truncate(r.TeX, 50))
	}

	fmt.Fprintf(w, "\n%d formulas\n", len(records))
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-3]) + "..."
}
