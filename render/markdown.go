package render

import (
	"strings"
)

// Markdown renders the view as a markdown report.
func (v View) Markdown() string {
	var b strings.Builder
	b.WriteString("# Document Analysis\n")
	for _, s := range v.Sections {
		writeMarkdownSection(&b, s, 2)
	}
	if len(v.More) > 0 {
		b.WriteString("\n## More\n")
		for _, s := range v.More {
			writeMarkdownSection(&b, s, 3)
		}
	}
	return b.String()
}

func writeMarkdownSection(b *strings.Builder, s Section, level int) {
	b.WriteString("\n")
	b.WriteString(strings.Repeat("#", level))
	b.WriteString(" ")
	b.WriteString(s.Title)
	b.WriteString("\n\n")

	switch {
	case s.Placeholder != "":
		b.WriteString("_" + s.Placeholder + "_\n")
	case len(s.KeyTerms) > 0:
		for _, kt := range s.KeyTerms {
			b.WriteString("- **" + kt.Term + "**")
			if kt.Definition != "" {
				b.WriteString(": " + kt.Definition)
			}
			b.WriteString("\n")
		}
	default:
		for _, l := range s.Lines {
			if s.List {
				b.WriteString("- ")
			}
			b.WriteString(markdownSpans(l.Spans))
			b.WriteString("\n")
		}
	}

	for _, c := range s.Children {
		writeMarkdownSection(b, c, level+1)
	}
}

func markdownSpans(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		if s.Bold {
			b.WriteString("**" + s.Text + "**")
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}
