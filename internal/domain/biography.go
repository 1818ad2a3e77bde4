package domain

// Biography is the normalized first paragraph of a leader's English Wikipedia
// article. Content may be empty but never carries citation or pronunciation markup.
type Biography struct {
	LeaderID string `json:"leader_id"`
	Content  string `json:"content"`
}

// ConsolidatedLeader is one element of the final output array.
// Biography is nil (JSON null) when nothing was scraped for the leader.
type ConsolidatedLeader struct {
	Leader
	Biography *string `json:"biography"`
}

// Consolidate joins leaders with their biographies, preserving leader order.
func Consolidate(leaders []Leader, biographies map[string]Biography) []ConsolidatedLeader {
	out := make([]ConsolidatedLeader, 0, len(leaders))
	for _, leader := range leaders {
		entry := ConsolidatedLeader{Leader: leader}
		if bio, ok := biographies[leader.ID]; ok {
			content := bio.Content
			entry.Biography = &content
		}
		out = append(out, entry)
	}
	return out
}
