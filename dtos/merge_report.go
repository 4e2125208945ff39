package dtos

// MergeReport describes one guest-cart merge into the remote cart.
type MergeReport struct {
	Status  string      `json:"status"` // noop, completed, failed
	Total   int         `json:"total"`
	Merged  int         `json:"merged"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
	Items   []MergeItem `json:"items"`
	Cleared bool        `json:"cleared"`
}

// MergeItem is the outcome of one guest line.
type MergeItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Status    string `json:"status"` // merged, skipped, failed
	Error     string `json:"error,omitempty"`
}

// MergeStatus constants
const (
	MergeStatusNoop      = "noop"
	MergeStatusCompleted = "completed"
	MergeStatusFailed    = "failed"
)

// MergeItemStatus constants
const (
	MergeItemMerged  = "merged"
	MergeItemSkipped = "skipped"
	MergeItemFailed  = "failed"
)

// Tally recomputes the counters from Items.
func (r *MergeReport) Tally() {
	r.Total = len(r.Items)
	r.Merged, r.Skipped, r.Failed = 0, 0, 0
	for _, item := range r.Items {
		switch item.Status {
		case MergeItemMerged:
			r.Merged++
		case MergeItemSkipped:
			r.Skipped++
		case MergeItemFailed:
			r.Failed++
		}
	}
}
