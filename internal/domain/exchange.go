package domain

// Exchange is the operator-facing record of one relay call. It carries no
// message content.
type Exchange struct {
	PK             string
	SK             string
	ExchangeID     string
	CorrelationID  string
	Category       Category
	Outcome        string
	Model          string
	DurationMillis int64
	ResponseLength int
	CreatedAt      string
	TTL            int64
}
