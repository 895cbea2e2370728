package extract

import (
	"math"
	"regexp"
	"strings"
)

const (
	chunkWords     = 300
	maxChunks      = 10
	chunkThreshold = 0.5
	acceptRatio    = 0.4
)

var sectionCues = []string{
	"agreement", "security deposit", "rental period", "payment terms",
	"termination", "arbitration", "jurisdiction",
	"witness", "signatory", "governing law", "parties", "definitions",
	"probation period", "internship duration", "performance",
	"salary", "compensation", "notice period", "work expectations",
	"attendance", "leaves", "certificate", "offer letter",
}

var cuePatterns = compileCues(sectionCues)

func compileCues(cues []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(cues))
	for i, cue := range cues {
		patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(cue) + `\b`)
	}
	return patterns
}

// Classification explains the outcome of ClassifyAgreement
type Classification struct {
	Chunks        int     `json:"chunks"`
	Votes         int     `json:"votes"`
	VoteRatio     float64 `json:"vote_ratio"`
	Heuristic     float64 `json:"heuristic"`
	AvgChunkScore float64 `json:"avg_chunk_score"`
	Reason        string  `json:"reason,omitempty"`
}

// ClassifyAgreement decides whether text reads like an agreement. Each chunk
// of up to 300 words votes when at least half of the section cues appear in
// it; the text is accepted when 40% of chunks vote or the whole text matches
// 40% of the cues.
func ClassifyAgreement(text string) (bool, Classification) {
	var details Classification
	if strings.TrimSpace(text) == "" {
		details.Reason = "empty_text"
		return false, details
	}

	chunks := chunkText(text, chunkWords, maxChunks)
	details.Chunks = len(chunks)

	var sum float64
	for _, ch := range chunks {
		score := cueScore(ch)
		sum += score
		if score >= chunkThreshold {
			details.Votes++
		}
	}

	ratio := float64(details.Votes) / float64(len(chunks))
	heuristic := cueScore(text)
	details.VoteRatio = round3(ratio)
	details.Heuristic = round3(heuristic)
	details.AvgChunkScore = round3(sum / float64(len(chunks)))

	accept := ratio >= acceptRatio || heuristic >= acceptRatio
	if !accept {
		details.Reason = "low_confidence"
	}
	return accept, details
}

func cueScore(text string) float64 {
	lower := strings.ToLower(text)
	found := 0
	for _, p := range cuePatterns {
		if p.MatchString(lower) {
			found++
		}
	}
	return float64(found) / float64(len(cuePatterns))
}

func chunkText(text string, words, limit int) []string {
	fields := strings.Fields(text)
	var chunks []string
	for i := 0; i < len(fields) && len(chunks) < limit; i += words {
		end := i + words
		if end > len(fields) {
			end = len(fields)
		}
		chunks = append(chunks, strings.Join(fields[i:end], " "))
	}
	return chunks
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
