package domain

// FinalStatus is the decision recorded on an application and a run.
type FinalStatus string

const (
	StatusPending     FinalStatus = "PENDING"
	StatusApproved    FinalStatus = "APPROVED"
	StatusRejected    FinalStatus = "REJECTED"
	StatusNeedsReview FinalStatus = "NEEDS_REVIEW"
)

// Valid reports whether s is one of the known statuses.
func (s FinalStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusNeedsReview:
		return true
	}
	return false
}

// IsOutcome reports whether s may be used as a terminal rule outcome.
// PENDING is only ever the initial application status.
func (s FinalStatus) IsOutcome() bool {
	return s.Valid() && s != StatusPending
}

// Built-in step type identifiers.
const (
	StepTypeDTIRule        = "dti_rule"
	StepTypeAmountPolicy   = "amount_policy"
	StepTypeRiskScoring    = "risk_scoring"
	StepTypeSentimentCheck = "sentiment_check"
)
