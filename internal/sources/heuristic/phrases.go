package heuristic

import (
	"strings"

	"seniorguard/internal/domain/models"
)

// PhraseCatalog is one category of scam phrases, matched case-insensitively as substrings
type PhraseCatalog struct {
	Category models.Category
	Phrases  []string
}

// phraseCatalogs is ordered; match output follows this order, not the order phrases appear in the text
var phraseCatalogs = []PhraseCatalog{
	{
		Category: models.CategoryTechSupport,
		Phrases: []string{
			"your computer has a virus",
			"windows has been compromised",
			"we detected suspicious activity",
			"your ip address",
			"remote access",
			"teamviewer",
			"anydesk",
			"allow me to access",
			"press windows key",
			"event viewer",
			"error messages",
			"your license has expired",
			"microsoft support",
			"apple support calling",
			"security alert",
		},
	},
	{
		Category: models.CategoryGovernmentImpersonation,
		Phrases: []string{
			"irs calling",
			"internal revenue service",
			"tax refund",
			"you owe money",
			"arrest warrant",
			"legal action",
			"send payment immediately",
			"tax fraud",
			"social security suspension",
		},
	},
	{
		Category: models.CategoryBankFraud,
		Phrases: []string{
			"your account has been frozen",
			"suspicious transaction",
			"verify your identity",
			"credit card fraud",
			"unusual activity",
			"confirm your account",
			"security department",
			"fraud prevention",
		},
	},
	{
		Category: models.CategoryGrandparent,
		Phrases: []string{
			"it's me grandma",
			"it's me grandpa",
			"i'm in trouble",
			"i need money",
			"don't tell mom",
			"don't tell dad",
			"i've been arrested",
			"i'm in jail",
			"car accident",
			"need bail money",
		},
	},
	{
		Category: models.CategoryLottery,
		Phrases: []string{
			"you've won",
			"lottery winner",
			"prize money",
			"claim your prize",
			"processing fee",
			"taxes on winnings",
			"send money to claim",
			"western union",
			"money gram",
			"gift cards",
		},
	},
	{
		Category: models.CategoryPressureTactics,
		Phrases: []string{
			"act now",
			"immediately",
			"urgent",
			"within 24 hours",
			"right now",
			"don't hang up",
			"stay on the line",
			"don't tell anyone",
			"keep this confidential",
			"limited time",
			"last chance",
		},
	},
	{
		Category: models.CategoryPaymentRequest,
		Phrases: []string{
			"gift card",
			"itunes card",
			"google play card",
			"amazon card",
			"steam card",
			"wire transfer",
			"western union",
			"bitcoin",
			"cryptocurrency",
			"prepaid card",
			"money order",
			"cash app",
			"venmo",
			"zelle",
		},
	},
}

// identityWords are counted on their own, outside the category lists
var identityWords = []string{"verify", "confirm", "account number", "social security"}

// PhraseMatches maps a category to the catalog phrases found in a transcript
type PhraseMatches map[models.Category][]string

// Count returns how many phrases of the category matched
func (m PhraseMatches) Count(c models.Category) int {
	return len(m[c])
}

// Has reports whether any phrase of the category matched
func (m PhraseMatches) Has(c models.Category) bool {
	return len(m[c]) > 0
}

// Flatten lists every matched phrase, category by category in catalog order
func (m PhraseMatches) Flatten() []string {
	var out []string
	for _, cat := range phraseCatalogs {
		out = append(out, m[cat.Category]...)
	}
	return out
}

// ByName returns the matches keyed by category name, for JSON output
func (m PhraseMatches) ByName() map[string][]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]string, len(m))
	for c, phrases := range m {
		out[string(c)] = phrases
	}
	return out
}

// SpotPhrases matches every catalog against the transcript
func SpotPhrases(transcript string) PhraseMatches {
	text := normalizeTranscript(transcript)
	matches := make(PhraseMatches)
	for _, cat := range phraseCatalogs {
		for _, phrase := range cat.Phrases {
			if strings.Contains(text, phrase) {
				matches[cat.Category] = append(matches[cat.Category], phrase)
			}
		}
	}
	return matches
}

// countIdentityWords counts which of the verification words appear at least once
func countIdentityWords(transcript string) int {
	text := normalizeTranscript(transcript)
	n := 0
	for _, w := range identityWords {
		if strings.Contains(text, w) {
			n++
		}
	}
	return n
}

// normalizeTranscript lowercases and folds typographic apostrophes so "it’s me grandma" matches
func normalizeTranscript(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}
