package render

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"legalklarity-backend/extract"
	"legalklarity-backend/models"
)

func fullAnalysis() models.DocumentAnalysis {
	return models.DocumentAnalysis{
		Summary:          "A **residential** lease for 12 months.",
		KeyTerms:         []string{"Notice Period: 90 days", "Confidentiality"},
		MainClauses:      []string{"Rent is due monthly."},
		Risks:            []string{"**High**: automatic renewal."},
		Recommendations:  []string{"Negotiate the renewal clause."},
		Parties:          []string{"Landlord", "Tenant"},
		Jurisdiction:     "New York",
		Obligations:      []string{"Tenant pays rent."},
		CriticalDates:    []string{"Lease ends 2026-12-31."},
		MissingOrUnusual: []string{"No termination clause."},
		ComplianceIssues: []string{"Deposit exceeds the legal cap."},
		NextSteps:        []string{"Consult a lawyer."},
	}
}

func TestRenderFullAnalysis(t *testing.T) {
	v := Render(fullAnalysis())

	leaves := v.Leaves()
	if len(leaves) != 12 {
		t.Fatalf("expected one section per field (12), got %d", len(leaves))
	}
	seen := map[string]bool{}
	for _, s := range leaves {
		if seen[s.Key] {
			t.Fatalf("duplicate section %s", s.Key)
		}
		seen[s.Key] = true
		if s.Placeholder != "" {
			t.Fatalf("section %s has placeholder %q", s.Key, s.Placeholder)
		}
	}
	if v.Placeholders() != 0 {
		t.Fatalf("expected no placeholders, got %d", v.Placeholders())
	}
	if len(v.More) != 1 || v.More[0].Key != "critical_dates" {
		t.Fatalf("critical dates should be in the overflow group: %+v", v.More)
	}
}

func TestRenderIdempotent(t *testing.T) {
	a := fullAnalysis()
	if !reflect.DeepEqual(Render(a), Render(a)) {
		t.Fatalf("rendering twice produced different views")
	}
	if Render(a).Markdown() != Render(a).Markdown() {
		t.Fatalf("markdown not deterministic")
	}
}

func TestRenderEmptyAnalysis(t *testing.T) {
	var a models.DocumentAnalysis
	v := Render(a)

	if got := v.Placeholders(); got != 9 {
		t.Fatalf("expected 9 placeholder lines, got %d", got)
	}

	for _, s := range v.Leaves() {
		switch s.Key {
		case "key_terms":
			if s.Placeholder != NoKeyTermsText {
				t.Fatalf("key terms placeholder = %q", s.Placeholder)
			}
		case "jurisdiction":
			if len(s.Lines) != 1 || s.Lines[0].Text() != NotSpecifiedText {
				t.Fatalf("jurisdiction = %+v", s.Lines)
			}
		}
	}
}

func TestSplitKeyTerm(t *testing.T) {
	cases := []struct {
		in   string
		want KeyTerm
	}{
		{"Notice Period: 90 days", KeyTerm{Term: "Notice Period", Definition: "90 days"}},
		{"Confidentiality", KeyTerm{Term: "Confidentiality"}},
		{"Fee: $10: per day", KeyTerm{Term: "Fee", Definition: "$10: per day"}},
		{"Ratio:1", KeyTerm{Term: "Ratio:1"}},
	}
	for _, c := range cases {
		if got := SplitKeyTerm(c.in); got != c.want {
			t.Fatalf("SplitKeyTerm(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseEmphasis(t *testing.T) {
	cases := []struct {
		in   string
		want []Span
	}{
		{"plain", []Span{{Text: "plain"}}},
		{"a **b** c", []Span{{Text: "a "}, {Text: "b", Bold: true}, {Text: " c"}}},
		{"**all**", []Span{{Text: "all", Bold: true}}},
		{"a **b", []Span{{Text: "a **b"}}},
		{"**a** then **b", []Span{{Text: "a", Bold: true}, {Text: " then **b"}}},
		{"", []Span{{Text: ""}}},
	}
	for _, c := range cases {
		if got := ParseEmphasis(c.in); !reflect.DeepEqual(got, c.want) {
			t.Fatalf("ParseEmphasis(%q) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestMarkdown(t *testing.T) {
	md := Render(fullAnalysis()).Markdown()
	for _, want := range []string{
		"# Document Analysis",
		"## Summary",
		"A **residential** lease for 12 months.",
		"- **Notice Period**: 90 days",
		"- **Confidentiality**\n",
		"### Jurisdiction",
		"## More",
		"- Lease ends 2026-12-31.",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}

	empty := Render(models.DocumentAnalysis{}).Markdown()
	if strings.Count(empty, "_"+NoInformationText+"_") != 9 {
		t.Fatalf("expected 9 placeholders in markdown:\n%s", empty)
	}
}

func TestWriteDOCXReadsBack(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteDOCX(&buf, Render(fullAnalysis())); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	text := string(extract.DOCX(buf.Bytes()))
	for _, want := range []string{"Document Analysis", "Key Terms", "Notice Period: 90 days", "A residential lease", "Critical Dates"} {
		if !strings.Contains(text, want) {
			t.Fatalf("docx text missing %q:\n%s", want, text)
		}
	}
}
