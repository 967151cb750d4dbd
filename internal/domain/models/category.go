package models

// Category is a scam or threat taxonomy tag
type Category string

// Text and voice categories
const (
	CategoryTechSupport             Category = "tech_support"
	CategoryGovernmentImpersonation Category = "government_impersonation"
	CategoryBankFraud               Category = "bank_fraud"
	CategoryGrandparent             Category = "grandparent"
	CategoryLottery                 Category = "lottery"
	CategoryPressureTactics         Category = "pressure_tactics"
	CategoryPaymentRequest          Category = "payment_request"
	CategoryUnknown                 Category = "unknown"
)

// URL categories
const (
	CategoryPhishingPattern    Category = "phishing_pattern"
	CategoryBrandImpersonation Category = "brand_impersonation"
	CategoryMalware            Category = "malware"
	CategorySocialEngineering  Category = "social_engineering"
	CategoryReputationFlagged  Category = "reputation_flagged"
	CategoryAIFlagged          Category = "ai_flagged"
)

// Label returns a short human-readable name used in evidence strings
func (c Category) Label() string {
	switch c {
	case CategoryTechSupport:
		return "tech support"
	case CategoryGovernmentImpersonation:
		return "government impersonation"
	case CategoryBankFraud:
		return "bank fraud"
	case CategoryGrandparent:
		return "family emergency"
	case CategoryLottery:
		return "lottery/prize"
	case CategoryPressureTactics:
		return "pressure tactic"
	case CategoryPaymentRequest:
		return "payment request"
	case CategoryPhishingPattern:
		return "phishing pattern"
	case CategoryBrandImpersonation:
		return "brand impersonation"
	case CategoryMalware:
		return "malware"
	case CategorySocialEngineering:
		return "social engineering"
	case CategoryReputationFlagged:
		return "reputation"
	case CategoryAIFlagged:
		return "AI analysis"
	default:
		return "unknown"
	}
}
