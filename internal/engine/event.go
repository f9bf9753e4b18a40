package engine

import "time"

// Event is a single normalized usage record from a Claude session log.
// Immutable after construction; the reader builds one per assistant
// message and the engine folds it into window aggregates.
type Event struct {
	Timestamp           time.Time
	Model               string
	Project             string
	Session             string
	ID                  string // messageID:requestID, empty when the log carries neither
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
}

// Billable returns the tokens that count against the rate limit:
// input + output + cache creation. Cache reads are free and never
// contribute to any aggregate.
func (e Event) Billable() int64 {
	return e.InputTokens + e.OutputTokens + e.CacheCreationTokens
}
