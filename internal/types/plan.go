package types

// GeneratedPlan is the unresolved draft itinerary produced by the plan
// generator. Stops inside Days carry no identity or external ID yet; the
// enrichment pipeline fills those in.
type GeneratedPlan struct {
	Title        string   `json:"title"`
	Summary      string   `json:"summary"`
	DurationDays int      `json:"duration_days"`
	Tags         []string `json:"tags,omitempty"`
	Days         []Day    `json:"days"`
}
