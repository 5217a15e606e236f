package service

// ItemError reports one failed item inside an otherwise successful
// evaluation pass.
type ItemError struct {
	ItemID string `json:"item_id"`
	Error  string `json:"error"`
}

// PassStats summarizes one evaluation pass. Skipped is set when another
// pass already held the advisory lock.
type PassStats struct {
	Evaluated int         `json:"evaluated"`
	Created   int         `json:"created"`
	Errors    []ItemError `json:"errors"`
	Skipped   bool        `json:"skipped"`
}
