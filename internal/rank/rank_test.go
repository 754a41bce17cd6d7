// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/mardi-search/pkg/types"
)

func ptr(s string) *string { return &s }

func texAnnotation(tex string) *string {
	return ptr(`<math><semantics><annotation encoding="application/x-tex">` + tex + `</annotation></semantics></math>`)
}

func binding(label, tex string) types.RawBinding {
	return types.RawBinding{
		Label:          ptr(label),
		MathExpression: texAnnotation(tex),
		Description:    ptr(label + " description"),
		Formula:        ptr("https://portal.mardi4nfdi.de/entity/" + label),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		tex  string
		want types.FormulaType
	}{
		{`x \le y`, types.TypeCondition},
		{`x \geq 0`, types.TypeCondition},
		{`0 < x`, types.TypeCondition},
		{`a > b`, types.TypeCondition},
		{`\left| z \right|`, types.TypeCondition}, // \left contains \le
		{`f(x) = x^2`, types.TypeDefinition},
		{`\Gamma(z+1) = z\Gamma(z)`, types.TypeDefinition},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.tex), "Classify(%q)", tt.tex)
	}
}

func TestRank_BuildsRecords(t *testing.T) {
	in := []types.RawBinding{
		binding("Q1", `{\displaystyle \Gamma(z+1) = z\Gamma(z)}`),
		binding("Q2", `{\displaystyle |\Gamma(x)| \le \Gamma(|x|)}`),
	}

	got := Rank(in, 10)
	require.Len(t, got, 2)

	assert.Equal(t, types.ResultRecord{
		ID:          "Q1",
		TeX:         `\Gamma(z+1) = z\Gamma(z)`,
		Description: "Q1 description",
		Link:        "https://portal.mardi4nfdi.de/entity/Q1",
		Type:        types.TypeDefinition,
	}, got[0])
	assert.Equal(t, types.TypeCondition, got[1].Type)
}

func TestRank_MissingFieldsDefault(t *testing.T) {
	in := []types.RawBinding{
		{MathExpression: texAnnotation("a^2 + b^2 = c^2")},
	}
	got := Rank(in, 0)
	require.Len(t, got, 1)
	assert.Equal(t, UnknownID, got[0].ID)
	assert.Equal(t, "", got[0].Description)
	assert.Equal(t, "", got[0].Link)
}

func TestRank_PresentEmptyLabelIsKept(t *testing.T) {
	b := binding("", "a^2 + b^2 = c^2")
	got := Rank([]types.RawBinding{b}, 0)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].ID)
}

func TestRank_Filters(t *testing.T) {
	in := []types.RawBinding{
		{},                                  // no math expression
		{MathExpression: ptr("plain text")}, // no annotation
		binding("short", "x^2"),             // below length gate
		binding("fourRunes", "αβγδ"),        // 4 runes, 8 bytes
		binding("ok", "x^2 + 1"),
		binding("collapses", "ab}}}}cd"), // only "abcd" after "}}" removal
	}
	got := Rank(in, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "ok", got[0].ID)
}

func TestRank_RemovesDoubleClosers(t *testing.T) {
	in := []types.RawBinding{
		binding("Q1", `\frac{a}{b^{2}} = c`),
	}
	got := Rank(in, 10)
	require.Len(t, got, 1)
	assert.Equal(t, `\frac{a}{b^{2 = c`, got[0].TeX)
}

func TestRank_Cap(t *testing.T) {
	var in []types.RawBinding
	for i := 0; i < 25; i++ {
		in = append(in, binding(fmt.Sprintf("Q%d", i), fmt.Sprintf("x_%d = %d", i, i)))
	}

	assert.Len(t, Rank(in, 0), DefaultCap)
	assert.Len(t, Rank(in, -3), DefaultCap)
	assert.Len(t, Rank(in, 3), 3)
	assert.Len(t, Rank(in, 100), 25)

	got := Rank(in, 3)
	assert.Equal(t, []string{"Q0", "Q1", "Q2"}, ids(got))
}

func TestRank_PreservesOrderAcrossDrops(t *testing.T) {
	in := []types.RawBinding{
		binding("A", "a + b = c"),
		binding("drop", "x"),
		binding("B", `x \le y + 1`),
		{},
		binding("C", "e^{i\\pi} = -1"),
	}
	assert.Equal(t, []string{"A", "B", "C"}, ids(Rank(in, 10)))
}

func TestRank_Deterministic(t *testing.T) {
	in := []types.RawBinding{
		binding("A", "a + b = c"),
		binding("B", `x \le y + 1`),
	}
	assert.Equal(t, Rank(in, 10), Rank(in, 10))
}

func TestRank_Invariants(t *testing.T) {
	var in []types.RawBinding
	samples := []string{"", "x", "}}}}}", "a}}}}b", "ab}}cde", `{\displaystyle y}}`, "x + y = z", `0 \le t`}
	for i := 0; i < 40; i++ {
		in = append(in, binding(fmt.Sprintf("Q%d", i), samples[i%len(samples)]))
	}
	got := Rank(in, 0)
	assert.LessOrEqual(t, len(got), DefaultCap)
	for _, r := range got {
		assert.GreaterOrEqual(t, utf8.RuneCountInString(r.TeX), MinTeXLength, "record %s", r.ID)
	}
}

func TestRank_EmptyInput(t *testing.T) {
	got := Rank(nil, 10)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestJSON(t *testing.T) {
	recs := []types.ResultRecord{{
		ID:          "Q1",
		TeX:         `0 < x \le 1`,
		Description: "bound & more",
		Link:        "https://portal.mardi4nfdi.de/entity/Q1",
		Type:        types.TypeCondition,
	}}

	got, err := JSON(recs)
	require.NoError(t, err)

	want := `[
  {
    "id": "Q1",
    "tex": "0 < x \\le 1",
    "description": "bound & more",
    "link": "https://portal.mardi4nfdi.de/entity/Q1",
    "type": "condition/bound"
  }
]`
	assert.Equal(t, want, got)
}

func TestJSON_Empty(t *testing.T) {
	got, err := JSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	assert.Equal(t, "No formulas found.\n", buf.String())

	buf.Reset()
	FormatTable([]types.ResultRecord{{ID: "Q1", TeX: strings.Repeat("x", 80), Type: types.TypeDefinition}}, &buf)
	out := buf.String()
	assert.Contains(t, out, "Q1")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "1 formulas")
}

func ids(recs []types.ResultRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
