package heuristic

import "strings"

// scamKeywords are literal words and phrases common in scam links and messages
var scamKeywords = []string{
	"urgent", "verify", "suspended", "unusual activity", "confirm identity",
	"click here", "act now", "limited time", "prize", "winner", "claim",
	"refund", "tax refund", "inheritance", "cryptocurrency", "investment",
	"guaranteed", "risk-free", "earn money", "work from home", "bitcoin",
	"paypal", "venmo", "wire transfer", "gift card", "amazon", "walmart",
}

// ScamKeywords returns the catalog in its fixed order
func ScamKeywords() []string {
	out := make([]string, len(scamKeywords))
	copy(out, scamKeywords)
	return out
}

// FindScamKeywords returns the catalog keywords found in text, in catalog order
func FindScamKeywords(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range scamKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}
