package planner

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/routecraft/routecraft/internal/types"
)

// stripJSONFence removes a ```json ... ``` fence when the model wraps its
// output in one despite instructions.
func stripJSONFence(txt string) string {
	s := strings.TrimSpace(txt)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

type stopPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	City        string `json:"city"`
}

type dayPayload struct {
	DayNumber     int           `json:"day_number"`
	Title         string        `json:"title"`
	Summary       string        `json:"summary"`
	Accommodation string        `json:"accommodation"`
	Stops         []stopPayload `json:"stops"`
}

func toDays(payload []dayPayload) []types.Day {
	days := make([]types.Day, 0, len(payload))
	for i, d := range payload {
		dayNumber := d.DayNumber
		if dayNumber <= 0 {
			dayNumber = i + 1
		}
		day := types.Day{
			DayNumber:     dayNumber,
			Title:         d.Title,
			Summary:       d.Summary,
			Accommodation: d.Accommodation,
			Stops:         make([]types.Stop, 0, len(d.Stops)),
		}
		for _, s := range d.Stops {
			day.Stops = append(day.Stops, types.Stop{
				Name:        s.Name,
				Description: s.Description,
				Location:    types.StopLocation{City: s.City},
			})
		}
		days = append(days, day)
	}
	return days
}

func parseGeneratedPlan(txt string) (*types.GeneratedPlan, error) {
	jsonStr := stripJSONFence(txt)
	var payload struct {
		Title        string       `json:"title"`
		Summary      string       `json:"summary"`
		DurationDays int          `json:"duration_days"`
		Tags         []string     `json:"tags"`
		Days         []dayPayload `json:"days"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse plan JSON: %w", err)
	}
	if len(payload.Days) == 0 {
		return nil, fmt.Errorf("generated plan contains no days")
	}

	plan := &types.GeneratedPlan{
		Title:        payload.Title,
		Summary:      payload.Summary,
		DurationDays: payload.DurationDays,
		Tags:         payload.Tags,
		Days:         toDays(payload.Days),
	}
	if plan.DurationDays == 0 {
		plan.DurationDays = len(plan.Days)
	}
	return plan, nil
}

func parseModifiedDays(txt string) ([]types.Day, error) {
	jsonStr := stripJSONFence(txt)
	var payload struct {
		Days []dayPayload `json:"days"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse modified plan JSON: %w", err)
	}
	if len(payload.Days) == 0 {
		return nil, fmt.Errorf("modified plan contains no days")
	}
	return toDays(payload.Days), nil
}

func parseBudget(txt string) (types.Budget, error) {
	jsonStr := stripJSONFence(txt)
	var budget types.Budget
	if err := json.Unmarshal([]byte(jsonStr), &budget); err != nil {
		return types.Budget{}, fmt.Errorf("failed to parse budget JSON: %w", err)
	}
	return budget, nil
}
