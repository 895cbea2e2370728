package inference

import (
	"fmt"
	"strings"
)

// DefaultChatSystemPrompt keeps the assistant on legal topics and short answers.
const DefaultChatSystemPrompt = "Act as an expert on legal topics and give clear, well-grounded answers. " +
	"Work out whether the user is a student, a startup owner or a citizen and tailor the answer to them. " +
	"If a question is not about law, say politely that you can only help with legal topics and suggest " +
	"another resource. Remind the user when needed that you are not a lawyer and your answer does not " +
	"replace professional legal advice. Answer in approximately 75 words."

const analysisSystemPrompt = "You are a legal document analyst. You explain contracts and agreements in plain " +
	"language for the reader described in the request, point out risks from that reader's perspective and " +
	"never present your output as a substitute for advice from a qualified lawyer. " +
	"Respond with a single JSON object and nothing else."

// AnalysisRequest is the input to a document analysis call
type AnalysisRequest struct {
	Text         string
	DocumentType string
	Role         string
	LanguageCode string
}

// maxPromptRunes bounds the document text placed in one prompt.
const maxPromptRunes = 400000

func buildAnalysisPrompt(req AnalysisRequest, schema string) string {
	role := req.Role
	if role == "" {
		role = "individual"
	}
	lang := req.LanguageCode
	if lang == "" {
		lang = "en"
	}
	docType := req.DocumentType
	if docType == "" {
		docType = "legal document"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Analyze the following %s for a reader whose role is %q.\n", docType, role))
	b.WriteString(fmt.Sprintf("Write every value in the language with code %q.\n", lang))
	b.WriteString("Format each key_terms entry as \"Term: Definition\". Use empty arrays for sections with no findings ")
	b.WriteString("and an empty string for jurisdiction when none is stated.\n\n")
	b.WriteString("OUTPUT FORMAT: a JSON object matching this JSON schema:\n")
	b.WriteString(schema)
	b.WriteString("\n\nDOCUMENT:\n")
	b.WriteString(truncateRunes(req.Text, maxPromptRunes))
	return b.String()
}

func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
