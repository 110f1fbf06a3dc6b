package model

// SentimentLabel is the categorical sentiment assigned to a review.
type SentimentLabel string

// Sentiment labels. The underlying classifier is binary; NEUTRAL is a policy
// override applied when the classifier's confidence sits near its decision
// boundary.
const (
	SentimentPositive SentimentLabel = "POSITIVE"
	SentimentNegative SentimentLabel = "NEGATIVE"
	SentimentNeutral  SentimentLabel = "NEUTRAL"
)

// Valid reports whether the label is one of the three known values.
func (l SentimentLabel) Valid() bool {
	switch l {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return true
	}
	return false
}
