// Package render turns a DocumentAnalysis into a sectioned, display-ready view
// and exports that view as markdown or DOCX.
package render

import (
	"strings"

	"legalklarity-backend/models"
)

const (
	NoInformationText = "No information available."
	NoKeyTermsText    = "No key terms defined."
	NotSpecifiedText  = "Not specified"
)

// Span is a run of text, emphasised when Bold is set
type Span struct {
	Text string `json:"text"`
	Bold bool   `json:"bold,omitempty"`
}

// Line is one paragraph or list item
type Line struct {
	Spans []Span `json:"spans"`
}

// Text returns the line with emphasis markers removed.
func (l Line) Text() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// KeyTerm is a key_terms entry split into term and definition
type KeyTerm struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Section is one panel of the rendered view. Exactly one of Lines, KeyTerms
// or Placeholder carries content for a leaf section.
type Section struct {
	Key         string    `json:"key"`
	Title       string    `json:"title"`
	Lines       []Line    `json:"lines,omitempty"`
	KeyTerms    []KeyTerm `json:"key_terms,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	List        bool      `json:"list"`
	Children    []Section `json:"children,omitempty"`
}

// View is the rendered analysis. More holds low-priority sections shown in an
// overflow group.
type View struct {
	Sections []Section `json:"sections"`
	More     []Section `json:"more"`
}

// Render builds the view for an analysis. It is pure: the same analysis always
// yields an identical view.
func Render(a models.DocumentAnalysis) View {
	parties := listSection("parties", "Parties", a.Parties)
	parties.Children = []Section{
		listSection("obligations", "Obligations", a.Obligations),
		jurisdictionSection(a.Jurisdiction),
		listSection("missing_or_unusual", "Missing or Unusual Clauses", a.MissingOrUnusual),
		listSection("compliance_issues", "Compliance Issues", a.ComplianceIssues),
		listSection("next_steps", "Next Steps", a.NextSteps),
	}

	return View{
		Sections: []Section{
			summarySection(a.Summary),
			keyTermsSection(a.KeyTerms),
			listSection("main_clauses", "Main Clauses", a.MainClauses),
			listSection("risks", "Risks", a.Risks),
			listSection("recommendations", "Recommendations", a.Recommendations),
			parties,
		},
		More: []Section{
			listSection("critical_dates", "Critical Dates", a.CriticalDates),
		},
	}
}

// Leaves returns every section that carries content, in display order.
func (v View) Leaves() []Section {
	var out []Section
	var walk func([]Section)
	walk = func(sections []Section) {
		for _, s := range sections {
			out = append(out, s)
			walk(s.Children)
		}
	}
	walk(v.Sections)
	walk(v.More)
	return out
}

// Placeholders counts sections whose list field was empty.
func (v View) Placeholders() int {
	n := 0
	for _, s := range v.Leaves() {
		if s.Placeholder == NoInformationText {
			n++
		}
	}
	return n
}

func summarySection(summary string) Section {
	s := Section{Key: "summary", Title: "Summary"}
	for _, para := range strings.Split(summary, "\n") {
		if para = strings.TrimSpace(para); para != "" {
			s.Lines = append(s.Lines, Line{Spans: ParseEmphasis(para)})
		}
	}
	return s
}

func keyTermsSection(terms []string) Section {
	s := Section{Key: "key_terms", Title: "Key Terms"}
	if len(terms) == 0 {
		s.Placeholder = NoKeyTermsText
		return s
	}
	for _, t := range terms {
		s.KeyTerms = append(s.KeyTerms, SplitKeyTerm(t))
	}
	return s
}

func jurisdictionSection(j string) Section {
	s := Section{Key: "jurisdiction", Title: "Jurisdiction"}
	if strings.TrimSpace(j) == "" {
		s.Lines = []Line{{Spans: []Span{{Text: NotSpecifiedText}}}}
		return s
	}
	s.Lines = []Line{{Spans: ParseEmphasis(j)}}
	return s
}

func listSection(key, title string, items []string) Section {
	s := Section{Key: key, Title: title, List: true}
	if len(items) == 0 {
		s.Placeholder = NoInformationText
		return s
	}
	for _, item := range items {
		s.Lines = append(s.Lines, Line{Spans: ParseEmphasis(item)})
	}
	return s
}

// SplitKeyTerm splits on the first ": ". Without one the whole entry is the
// term and the definition is empty.
func SplitKeyTerm(entry string) KeyTerm {
	term, definition, found := strings.Cut(entry, ": ")
	if !found {
		return KeyTerm{Term: entry}
	}
	return KeyTerm{Term: term, Definition: definition}
}

// ParseEmphasis converts **bold** pairs into emphasised spans with the markers
// removed. A trailing unmatched marker is kept as literal text.
func ParseEmphasis(text string) []Span {
	parts := strings.Split(text, "**")
	if len(parts)%2 == 0 {
		last := len(parts) - 1
		parts[last-1] = parts[last-1] + "**" + parts[last]
		parts = parts[:last]
	}

	spans := make([]Span, 0, len(parts))
	for i, p := range parts {
		if p == "" {
			continue
		}
		spans = append(spans, Span{Text: p, Bold: i%2 == 1})
	}
	if len(spans) == 0 {
		spans = append(spans, Span{Text: ""})
	}
	return spans
}
