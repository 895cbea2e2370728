package render

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const DOCXContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// Font sizes in half-points.
var headingSizes = map[int]int{1: 36, 2: 30, 3: 26, 4: 24}

// WriteDOCX writes the view as a minimal WordprocessingML document.
func WriteDOCX(w io.Writer, v View) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", documentXML(v)},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", p.name, err)
		}
		if _, err := io.WriteString(f, p.body); err != nil {
			return fmt.Errorf("failed to write %s: %w", p.name, err)
		}
	}

	return zw.Close()
}

func documentXML(v View) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	writeHeading(&b, "Document Analysis", 1)
	for _, s := range v.Sections {
		writeDOCXSection(&b, s, 2)
	}
	if len(v.More) > 0 {
		writeHeading(&b, "More", 2)
		for _, s := range v.More {
			writeDOCXSection(&b, s, 3)
		}
	}

	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

func writeDOCXSection(b *strings.Builder, s Section, level int) {
	writeHeading(b, s.Title, level)

	switch {
	case s.Placeholder != "":
		writeParagraph(b, []Span{{Text: s.Placeholder}}, "")
	case len(s.KeyTerms) > 0:
		for _, kt := range s.KeyTerms {
			spans := []Span{{Text: kt.Term, Bold: true}}
			if kt.Definition != "" {
				spans = append(spans, Span{Text: ": " + kt.Definition})
			}
			writeParagraph(b, spans, "• ")
		}
	default:
		prefix := ""
		if s.List {
			prefix = "• "
		}
		for _, l := range s.Lines {
			writeParagraph(b, l.Spans, prefix)
		}
	}

	for _, c := range s.Children {
		writeDOCXSection(b, c, level+1)
	}
}

func writeHeading(b *strings.Builder, text string, level int) {
	size, ok := headingSizes[level]
	if !ok {
		size = 24
	}
	b.WriteString(`<w:p>`)
	fmt.Fprintf(b, `<w:r><w:rPr><w:b/><w:sz w:val="%d"/></w:rPr>`, size)
	writeText(b, text)
	b.WriteString(`</w:r></w:p>`)
}

func writeParagraph(b *strings.Builder, spans []Span, prefix string) {
	b.WriteString(`<w:p>`)
	if prefix != "" {
		b.WriteString(`<w:r>`)
		writeText(b, prefix)
		b.WriteString(`</w:r>`)
	}
	for _, s := range spans {
		b.WriteString(`<w:r>`)
		if s.Bold {
			b.WriteString(`<w:rPr><w:b/></w:rPr>`)
		}
		writeText(b, s.Text)
		b.WriteString(`</w:r>`)
	}
	b.WriteString(`</w:p>`)
}

func writeText(b *strings.Builder, text string) {
	b.WriteString(`<w:t xml:space="preserve">`)
	xml.EscapeText(b, []byte(text))
	b.WriteString(`</w:t>`)
}
