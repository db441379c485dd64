package domain

import "time"

// IdempotencyRecord captures the stored outcome of one deduplicated
// request. Created once per distinct (market, org, key); never updated.
type IdempotencyRecord struct {
	Market         MarketID
	Org            OrgID
	IdempotencyKey string
	RequestHash    string
	ResponseStatus int
	ResponseBody   []byte
	CreatedAt      time.Time
}
