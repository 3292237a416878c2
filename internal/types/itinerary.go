package types

import (
	"time"

	"github.com/google/uuid"
)

type ItineraryStatus string

const (
	ItineraryStatusDraft    ItineraryStatus = "draft"
	ItineraryStatusFinished ItineraryStatus = "finished"
	ItineraryStatusArchived ItineraryStatus = "archived"
)

type ItineraryVisibility string

const (
	VisibilityPrivate ItineraryVisibility = "private"
	VisibilityPublic  ItineraryVisibility = "public"
)

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StopLocation describes where a stop is. City may be empty on draft stops
// coming straight from the plan generator.
type StopLocation struct {
	City    string    `json:"city,omitempty"`
	Country string    `json:"country,omitempty"`
	Address string    `json:"address,omitempty"`
	Geo     *GeoPoint `json:"geo,omitempty"`
}

// Stop is a single point-of-interest entry within one day of an itinerary.
// ID is assigned once at creation and never changes; ExternalID being set
// means the stop has been resolved against the place search provider.
type Stop struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Location    StopLocation `json:"location"`
	ExternalID  string       `json:"external_id,omitempty"`
	Rating      *float64     `json:"rating,omitempty"`
	Resources   []string     `json:"resources,omitempty"`
}

// Resolved reports whether the stop carries a canonical place identity.
func (s *Stop) Resolved() bool { return s.ExternalID != "" }

// Day is one chronological day of an itinerary. The order of Stops is the
// visiting order for that day.
type Day struct {
	DayNumber     int    `json:"day_number"`
	Title         string `json:"title,omitempty"`
	Summary       string `json:"summary,omitempty"`
	Accommodation string `json:"accommodation,omitempty"`
	Stops         []Stop `json:"stops"`
}

// Waypoint is the flattened, publish-oriented projection of a Stop, consumed
// by the route publishing flow. It is never authored directly: the projector
// regenerates the whole list from Days after every structural mutation.
type Waypoint struct {
	Title     string   `json:"title"`
	Summary   string   `json:"summary"`
	Day       int      `json:"day"`
	Order     int      `json:"order"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Resources []string `json:"resources"`
}

type Budget struct {
	Currency  string  `json:"currency"`
	Amount    float64 `json:"amount"`
	PerPerson bool    `json:"per_person,omitempty"`
	Notes     string  `json:"notes,omitempty"`
}

// Itinerary is the aggregate root. Revision is an optimistic concurrency
// counter checked and bumped on every save.
type Itinerary struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	Title        string              `json:"title"`
	Summary      string              `json:"summary,omitempty"`
	StartingCity string              `json:"starting_city,omitempty"`
	DurationDays int                 `json:"duration_days"`
	Tags         []string            `json:"tags,omitempty"`
	Status       ItineraryStatus     `json:"status"`
	Visibility   ItineraryVisibility `json:"visibility"`
	Days         []Day               `json:"days"`
	WaypointList []Waypoint          `json:"waypoint_list"`
	Budget       Budget              `json:"budget"`
	RouteID      *uuid.UUID          `json:"route_id,omitempty"`
	ForkedFrom   *uuid.UUID          `json:"forked_from,omitempty"`
	Revision     int64               `json:"revision"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// TotalStops counts stops across all days.
func (i *Itinerary) TotalStops() int {
	n := 0
	for _, d := range i.Days {
		n += len(d.Stops)
	}
	return n
}

// TripPreferences is the structured half of a generation request; the
// free-text brief is the other half.
type TripPreferences struct {
	DurationDays int      `json:"duration_days,omitempty"`
	StartingCity string   `json:"starting_city,omitempty"`
	Pace         string   `json:"pace,omitempty"`
	Interests    []string `json:"interests,omitempty"`
	BudgetLevel  int      `json:"budget_level,omitempty"`
	Travelers    int      `json:"travelers,omitempty"`
}

// GenerateItineraryRequest is the body for POST /itineraries/generate.
type GenerateItineraryRequest struct {
	Brief       string          `json:"brief"`
	Preferences TripPreferences `json:"preferences"`
}

// ReorderStopsRequest moves one stop within a single day. NewIndex is
// interpreted against the array after removal (remove-then-insert).
type ReorderStopsRequest struct {
	DayNumber int `json:"day_number"`
	OldIndex  int `json:"old_index"`
	NewIndex  int `json:"new_index"`
}

// MoveStopRequest moves one stop between two days. ToIndex is optional; out
// of range or absent means append at the end of the target day.
type MoveStopRequest struct {
	FromDay   int  `json:"from_day"`
	ToDay     int  `json:"to_day"`
	FromIndex int  `json:"from_index"`
	ToIndex   *int `json:"to_index,omitempty"`
}

// AddStopRequest appends a stop to a day. When Location carries coordinates
// the stop is built directly from them (pin-on-map path); otherwise the
// place resolver is consulted once with a derived city hint.
type AddStopRequest struct {
	DayNumber int           `json:"day_number"`
	PlaceName string        `json:"place_name"`
	Notes     string        `json:"notes,omitempty"`
	Location  *StopLocation `json:"location,omitempty"`
}

// RemoveStopRequest carries the day of the stop being deleted; the stop ID
// itself travels in the URL.
type RemoveStopRequest struct {
	DayNumber int `json:"day_number"`
}

// ModifyItineraryRequest asks the plan generator to rework the current days
// according to a free-text change request.
type ModifyItineraryRequest struct {
	Prompt string `json:"prompt"`
}

type PaginatedItinerariesResponse struct {
	Itineraries  []Itinerary `json:"itineraries"`
	TotalRecords int         `json:"total_records"`
	Page         int         `json:"page"`
	PageSize     int         `json:"page_size"`
}
