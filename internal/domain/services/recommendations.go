package services

import (
	"seniorguard/internal/domain/models"
)

// The two reminders close every recommendation list, and are the whole list for a safe verdict.
const (
	ReminderNeverShare = "Never share one-time codes, your Social Security number or card numbers through a link or a phone call"
	ReminderVerify     = "Verify independently by contacting the organization through an official phone number or website"
)

// Advice is the headline and ordered recommendation list for one verdict
type Advice struct {
	Headline        string
	Recommendations []string
}

type levelAdvice struct {
	headline string
	entries  []string
}

// linkAdvice applies to URL and email verdicts, callAdvice to transcripts and free text
var (
	linkAdvice = map[models.Severity]levelAdvice{
		models.SeverityCritical: {
			headline: "DO NOT CLICK THIS LINK - critical threat detected",
			entries: []string{
				"This link is extremely dangerous and may steal your information",
				"Delete the message containing this link immediately",
			},
		},
		models.SeverityHigh: {
			headline: "DANGER - this link is highly suspicious",
			entries: []string{
				"Do not click unless you are absolutely certain it is legitimate",
				"Contact the supposed sender through official channels to verify",
			},
		},
		models.SeverityMedium: {
			headline: "CAUTION - this link shows suspicious characteristics",
			entries: []string{
				"Verify the sender's identity before proceeding",
				"Look for official contact information to confirm legitimacy",
			},
		},
	}

	callAdvice = map[models.Severity]levelAdvice{
		models.SeverityCritical: {
			headline: "HANG UP IMMEDIATELY - do not proceed, this is a scam",
			entries: []string{
				"Do not provide any information",
				"Do not send money or gift cards",
				"Block this number",
				"Report to the FTC at reportfraud.ftc.gov",
			},
		},
		models.SeverityHigh: {
			headline: "DANGER - this shows strong scam indicators",
			entries: []string{
				"End the call politely",
				"Call the organization back using official phone numbers",
				"Never allow remote access to your computer",
			},
		},
		models.SeverityMedium: {
			headline: "CAUTION - suspicious patterns detected",
			entries: []string{
				"Verify the caller's identity independently",
				"Do not provide sensitive information",
			},
		},
	}

	categoryAdvice = map[models.Category][]string{
		models.CategoryTechSupport: {
			"Microsoft and Apple will never call you unsolicited",
			"Do not allow remote access to your computer",
			"Hang up and contact tech support directly if concerned",
		},
		models.CategoryGovernmentImpersonation: {
			"The IRS and other government agencies send letters, not threatening calls",
			"They will never demand immediate payment",
			"Call the agency directly using official numbers",
		},
		models.CategoryGrandparent: {
			"Verify by asking personal questions only the real person would know",
			"Call the family member directly using a known number",
			"Contact other family members to verify the situation",
		},
		models.CategoryBankFraud: {
			"Hang up and call your bank using the number on your card",
			"Banks will never ask for your full password or PIN",
			"Do not provide account numbers over the phone",
		},
		models.CategoryLottery: {
			"You cannot win a lottery or prize you never entered",
			"Real prizes never require a fee or taxes paid up front",
		},
		models.CategoryPaymentRequest: {
			"Requests for unusual payment methods are a hallmark of scams",
		},
		models.CategorySocialEngineering: {
			"This appears to be a phishing attempt - never enter personal information",
		},
		models.CategoryMalware: {
			"This link may download malicious software to your device",
		},
		models.CategoryBrandImpersonation: {
			"The address only imitates a well-known company - type the company's address yourself instead",
		},
	}

	safeHeadlines = map[bool]string{
		true:  "This link appears to be safe based on our analysis",
		false: "No immediate scam indicators detected, this appears safe",
	}

	paymentAdvice = []string{
		"NEVER pay with gift cards, wire transfers, or cryptocurrency",
		"Legitimate organizations don't request these payment methods",
	}

	urgencyAdvice = []string{
		"Urgency is a classic scam tactic - take your time",
		"Legitimate issues can wait for you to verify",
	}
)

// InsufficientSignalHeadline replaces the safe headline when no source could contribute
const InsufficientSignalHeadline = "We could not fully check this - proceed with caution"

// Recommend builds the advice for a verdict. It is a pure function of its arguments.
func Recommend(link bool, level models.Severity, primary models.Category, isSafe, insufficient bool, ind *models.WarningIndicators) Advice {
	reminders := []string{ReminderNeverShare, ReminderVerify}

	if isSafe {
		headline := safeHeadlines[link]
		if insufficient {
			headline = InsufficientSignalHeadline
		}
		return Advice{Headline: headline, Recommendations: reminders}
	}

	table := callAdvice
	if link {
		table = linkAdvice
	}
	la, ok := table[level]
	if !ok {
		la = table[models.SeverityMedium]
	}

	recs := []string{la.headline}
	recs = append(recs, la.entries...)
	recs = append(recs, categoryAdvice[primary]...)
	if ind != nil {
		if ind.PaymentRequest > 0 {
			recs = append(recs, paymentAdvice...)
		}
		if ind.HighUrgency > 0 {
			recs = append(recs, urgencyAdvice...)
		}
	}
	recs = append(recs, reminders...)

	return Advice{Headline: la.headline, Recommendations: recs}
}
