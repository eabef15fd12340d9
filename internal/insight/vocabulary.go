package insight

// Fixed text and keyword tables used by the heuristic engine.

const (
	defaultContactWindow = "Business hours (10:00 AM - 5:00 PM)"
	defaultChannel       = "call"

	newCustomerReason = "New customer, immediate follow-up recommended"
	scheduledReason   = "Already scheduled follow-up for %s"
	recentAdjustment  = " (adjusted for recent interaction)"

	highReason   = "High engagement customer, regular follow-up recommended"
	mediumReason = "Medium engagement customer, timely follow-up recommended"
	lowReason    = "Re-engagement attempt recommended"

	pendingActionFormat  = "Complete pending interaction: %s"
	interestAction       = "Send personalized offer based on expressed interest"
	summaryFormat        = "Analysis based on %d interactions showing %s engagement level"
	maxProfileListLength = 3
)

var newCustomerActions = []string{
	"Schedule an introductory call",
	"Send a welcome message",
	"Add notes from your initial contact",
}

var newCustomerServices = []string{"Initial Assessment Required"}

const newCustomerRisk = "Not enough data to assess"

// productVocabulary is matched as a lower-case substring of interaction notes.
var productVocabulary = []string{
	"health insurance",
	"life insurance",
	"car insurance",
	"vehicle insurance",
	"home insurance",
	"term plan",
	"investment plan",
	"medical insurance",
	"two-wheeler",
	"four-wheeler",
	"family plan",
	"retirement plan",
	"pension plan",
	"child plan",
	"education plan",
	"savings plan",
	"ulip",
}

var (
	starterServices     = []string{"Life Insurance", "Health Insurance"}
	establishedServices = []string{"Term Life Insurance", "Family Health Plan", "Investment Plans"}
)

var interestKeywords = []string{
	"interested",
	"thinking",
	"considering",
	"want",
	"need",
	"looking",
	"information",
}

var channelActions = map[string]string{
	"call":     "Schedule a follow-up call",
	"meeting":  "Schedule an in-person meeting",
	"email":    "Send a detailed email with personalized information",
	"whatsapp": "Send a follow-up WhatsApp message with latest offers",
	"sms":      "Send an SMS with a brief update",
}

var genericActions = []string{
	"Share new policy benefits relevant to their needs",
	"Check if any family members need coverage",
	"Review current policies for potential upgrades",
	"Share success stories from similar customers",
	"Offer a free insurance portfolio review",
}

const (
	riskHigh          = "Loyal customer with strong engagement"
	riskRenewal       = "Stable customer approaching renewal decision"
	riskMedium        = "Engaged customer, moderate retention risk"
	riskNewCustomer   = "New customer, needs nurturing"
	riskReEngagement  = "At-risk customer, needs re-engagement"
	renewalKeyword    = "renewal"
	recentWindowDays  = 30
	maxGapDays        = 60
	defaultAvgGapDays = 14.0
	recentFollowUpGap = 3
)

// contactWindow is a named half-open range of hours.
type contactWindow struct {
	name       string
	start, end int
}

// contactWindows are evaluated in declaration order; ties go to the earlier one.
var contactWindows = []contactWindow{
	{name: "morning", start: 7, end: 12},
	{name: "afternoon", start: 12, end: 16},
	{name: "evening", start: 16, end: 19},
	{name: "night", start: 19, end: 22},
}

const (
	firstContactHour = 7
	lastContactHour  = 22 // exclusive
)
