package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/routecraft/routecraft/internal/types"
)

// GetTripPlanPrompt builds the generation prompt for a fresh trip plan.
func GetTripPlanPrompt(brief string, prefs types.TripPreferences) string {
	var sb strings.Builder
	sb.WriteString("You are a travel planning assistant. Create a day-by-day trip itinerary.\n")
	sb.WriteString(fmt.Sprintf("Trip brief: %s\n", brief))
	if prefs.DurationDays > 0 {
		sb.WriteString(fmt.Sprintf("The trip lasts exactly %d days. Return exactly that many days.\n", prefs.DurationDays))
	}
	if prefs.StartingCity != "" {
		sb.WriteString(fmt.Sprintf("The trip is based in %s. Every stop must be in or near that city.\n", prefs.StartingCity))
	}
	if prefs.Pace != "" {
		sb.WriteString(fmt.Sprintf("Preferred pace: %s.\n", prefs.Pace))
	}
	if len(prefs.Interests) > 0 {
		sb.WriteString(fmt.Sprintf("Traveler interests: %s.\n", strings.Join(prefs.Interests, ", ")))
	}
	if prefs.BudgetLevel > 0 {
		sb.WriteString(fmt.Sprintf("Budget level (1=shoestring, 5=luxury): %d.\n", prefs.BudgetLevel))
	}
	sb.WriteString(`
Respond with ONLY valid JSON in this exact shape, no prose before or after:
{
  "title": "...",
  "summary": "...",
  "duration_days": 2,
  "tags": ["..."],
  "days": [
    {
      "day_number": 1,
      "title": "...",
      "summary": "...",
      "accommodation": "...",
      "stops": [
        {"name": "...", "description": "...", "city": "..."}
      ]
    }
  ]
}
Day numbers start at 1 and increase by one. Use real, well-known place names for stops.`)
	return sb.String()
}

// GetPlanModificationPrompt builds the prompt that reworks existing days
// according to a free-text change request, locked to the trip's city so the
// generator does not wander off to other destinations.
func GetPlanModificationPrompt(days []types.Day, changeRequest, cityLock string) string {
	current, _ := json.Marshal(struct {
		Days []types.Day `json:"days"`
	}{Days: days})

	var sb strings.Builder
	sb.WriteString("You are a travel planning assistant. Modify the itinerary below according to the change request.\n")
	sb.WriteString(fmt.Sprintf("Change request: %s\n", changeRequest))
	if cityLock != "" {
		sb.WriteString(fmt.Sprintf("All stops must remain in or near %s. Do not suggest places in other cities.\n", cityLock))
	}
	sb.WriteString("Days not mentioned by the change request must be returned unchanged.\n")
	sb.WriteString("Current itinerary JSON:\n")
	sb.Write(current)
	sb.WriteString(`
Respond with ONLY valid JSON in this exact shape, no prose before or after:
{
  "days": [
    {
      "day_number": 1,
      "title": "...",
      "summary": "...",
      "accommodation": "...",
      "stops": [
        {"name": "...", "description": "...", "city": "..."}
      ]
    }
  ]
}`)
	return sb.String()
}

// GetBudgetEstimatePrompt asks for a rough total budget for the itinerary.
func GetBudgetEstimatePrompt(itinerary *types.Itinerary) string {
	var stops []string
	for _, d := range itinerary.Days {
		for _, s := range d.Stops {
			stops = append(stops, s.Name)
		}
	}

	var sb strings.Builder
	sb.WriteString("Estimate a total budget for the following trip.\n")
	sb.WriteString(fmt.Sprintf("Destination: %s. Duration: %d days.\n", itinerary.StartingCity, itinerary.DurationDays))
	sb.WriteString(fmt.Sprintf("Planned stops: %s.\n", strings.Join(stops, "; ")))
	sb.WriteString(`
Respond with ONLY valid JSON in this exact shape, no prose before or after:
{"currency": "EUR", "amount": 0, "per_person": true, "notes": "..."}`)
	return sb.String()
}
