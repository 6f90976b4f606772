package models

// BroadcastResult tallies one broadcast batch. The batch always runs to
// completion; failed recipients are counted, not retried.
type BroadcastResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}
