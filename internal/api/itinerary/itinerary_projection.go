package itinerary

import (
	"strings"

	"github.com/routecraft/routecraft/internal/types"
)

// ProjectWaypoints flattens the nested day/stop structure into the ordered
// waypoint list consumed by route publishing. It is a pure function of days:
// every structural mutation must re-run it before persisting, which is the
// whole consistency mechanism between the two views.
func ProjectWaypoints(days []types.Day) []types.Waypoint {
	waypoints := []types.Waypoint{}
	order := 0
	for _, day := range days {
		for _, stop := range day.Stops {
			wp := types.Waypoint{
				Title:     stop.Name,
				Summary:   stop.Description,
				Day:       day.DayNumber,
				Order:     order,
				Location:  formatLocation(stop.Location),
				Notes:     stop.Description,
				Resources: []string{},
			}
			if len(stop.Resources) > 0 {
				wp.Resources = append([]string{}, stop.Resources...)
			}
			if stop.Location.Geo != nil {
				lat, lng := stop.Location.Geo.Lat, stop.Location.Geo.Lng
				wp.Latitude = &lat
				wp.Longitude = &lng
			}
			waypoints = append(waypoints, wp)
			order++
		}
	}
	return waypoints
}

// formatLocation renders a stop location as one human-readable line,
// skipping blank parts.
func formatLocation(loc types.StopLocation) string {
	parts := make([]string, 0, 2)
	if loc.Address != "" {
		parts = append(parts, loc.Address)
	}
	if loc.City != "" && !strings.Contains(loc.Address, loc.City) {
		parts = append(parts, loc.City)
	}
	return strings.Join(parts, ", ")
}

// mergeResolvedStop folds a resolver match into a draft stop. Only the
// fields the resolver owns are replaced; everything authored before
// resolution (identity, description, resources) is preserved.
func mergeResolvedStop(stop types.Stop, match *types.PlaceMatch) types.Stop {
	stop.Name = match.Name
	stop.ExternalID = match.ExternalID
	stop.Location.Address = match.Address
	geo := match.Geo
	stop.Location.Geo = &geo
	if match.City != "" {
		stop.Location.City = match.City
	}
	if match.Country != "" {
		stop.Location.Country = match.Country
	}
	if match.Rating != nil {
		rating := *match.Rating
		stop.Rating = &rating
	}
	return stop
}
