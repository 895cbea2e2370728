package extract

import "strings"

// GeneralDocumentType is returned when no specific document type matches.
const GeneralDocumentType = "general legal document"

type typePattern struct {
	name     string
	keywords []string
}

// ordered so ties resolve to the earlier entry
var documentTypes = []typePattern{
	{"rental agreement", []string{"rent", "lease", "tenant", "landlord", "security deposit"}},
	{"employment contract", []string{"employment", "employee", "employer", "salary", "position"}},
	{"service agreement", []string{"service", "provider", "client", "deliverable"}},
	{"loan agreement", []string{"loan", "borrower", "lender", "interest rate"}},
	{"nda", []string{"confidential", "non-disclosure", "secrecy"}},
	{"purchase agreement", []string{"purchase", "buy", "sell", "buyer", "seller"}},
	{"internship agreement", []string{"internship", "intern", "supervisor", "internship period"}},
}

// DetectDocumentType returns the document type whose keywords occur most often.
func DetectDocumentType(text string) string {
	lower := strings.ToLower(text)
	best, bestScore := GeneralDocumentType, 0
	for _, dt := range documentTypes {
		score := 0
		for _, kw := range dt.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = dt.name, score
		}
	}
	return best
}
