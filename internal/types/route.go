package types

import (
	"time"

	"github.com/google/uuid"
)

// Route is the published, read-only document derived from a finished
// itinerary. One route per itinerary, linked both ways.
type Route struct {
	ID          uuid.UUID  `json:"id"`
	ItineraryID uuid.UUID  `json:"itinerary_id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Waypoints   []Waypoint `json:"waypoints"`
	PublishedAt time.Time  `json:"published_at"`
}
