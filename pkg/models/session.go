package models

import "time"

// MiningParams are the user-chosen parameters for one pipeline run.
type MiningParams struct {
	MinSupport   float64 `json:"min_support"`
	Metric       Metric  `json:"metric"`
	MinThreshold float64 `json:"min_threshold"`
}

// Session holds one browser session's state: the login label, the uploaded
// dataset, the built basket matrix and the latest mining results. Everything
// is recomputed from scratch on each parameter change; the session only
// caches the most recent run for display.
//
// Sessions are created on login and discarded on logout or TTL expiry.
// A Session itself carries no lock: the store hands detached snapshots to
// readers and applies mutations under its own lock, replacing result fields
// wholesale so a snapshot never observes a partial run.
type Session struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Created  time.Time `json:"created"`
	LastSeen time.Time `json:"last_seen"`

	Dataset *Dataset      `json:"-"`
	Matrix  *BasketMatrix `json:"-"`

	Params   MiningParams `json:"params"`
	Itemsets []Itemset    `json:"-"`
	Rules    []Rule       `json:"-"`

	// Mined is true once at least one mining run has completed.
	Mined bool `json:"mined"`
}

// Touch updates the last-seen timestamp.
func (s *Session) Touch(now time.Time) {
	s.LastSeen = now
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastSeen) > ttl
}

// Summary is the JSON projection returned by the session endpoint.
type Summary struct {
	Username     string       `json:"username"`
	Created      time.Time    `json:"created"`
	HasDataset   bool         `json:"has_dataset"`
	Filename     string       `json:"filename,omitempty"`
	Rows         int          `json:"rows,omitempty"`
	Transactions int          `json:"transactions,omitempty"`
	ItemCount    int          `json:"item_count,omitempty"`
	Mined        bool         `json:"mined"`
	Params       MiningParams `json:"params"`
	ItemsetCount int          `json:"itemset_count"`
	RuleCount    int          `json:"rule_count"`
}

// Summarize builds the display summary for a session.
func (s *Session) Summarize() Summary {
	sum := Summary{
		Username:     s.Username,
		Created:      s.Created,
		Mined:        s.Mined,
		Params:       s.Params,
		ItemsetCount: len(s.Itemsets),
		RuleCount:    len(s.Rules),
	}
	if s.Dataset != nil {
		sum.HasDataset = true
		sum.Filename = s.Dataset.Filename
		sum.Rows = s.Dataset.RowCount()
	}
	if s.Matrix != nil {
		sum.Transactions = s.Matrix.TransactionCount()
		sum.ItemCount = s.Matrix.ItemCount()
	}
	return sum
}
