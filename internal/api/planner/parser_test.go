package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routecraft/routecraft/internal/types"
)

func TestStripJSONFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripJSONFence(tt.input))
		})
	}
}

func TestParseGeneratedPlan(t *testing.T) {
	t.Run("full plan", func(t *testing.T) {
		txt := "```json\n" + `{
            "title": "Two days in Istanbul",
            "summary": "Old town and Galata",
            "duration_days": 2,
            "tags": ["history", "food"],
            "days": [
                {"day_number": 1, "title": "Sultanahmet", "stops": [
                    {"name": "Hagia Sophia", "description": "Morning visit", "city": "Istanbul"},
                    {"name": "Blue Mosque", "city": "Istanbul"}
                ]},
                {"day_number": 2, "title": "Galata", "stops": [
                    {"name": "Galata Tower", "city": "Istanbul"}
                ]}
            ]
        }` + "\n```"

		plan, err := parseGeneratedPlan(txt)
		require.NoError(t, err)
		assert.Equal(t, "Two days in Istanbul", plan.Title)
		assert.Equal(t, 2, plan.DurationDays)
		assert.Equal(t, []string{"history", "food"}, plan.Tags)
		require.Len(t, plan.Days, 2)
		require.Len(t, plan.Days[0].Stops, 2)
		assert.Equal(t, "Hagia Sophia", plan.Days[0].Stops[0].Name)
		assert.Equal(t, "Istanbul", plan.Days[0].Stops[0].Location.City)
		assert.Equal(t, "Morning visit", plan.Days[0].Stops[0].Description)
	})

	t.Run("missing day numbers default to position", func(t *testing.T) {
		txt := `{"title": "T", "days": [
            {"stops": [{"name": "A"}]},
            {"stops": [{"name": "B"}]}
        ]}`
		plan, err := parseGeneratedPlan(txt)
		require.NoError(t, err)
		assert.Equal(t, 1, plan.Days[0].DayNumber)
		assert.Equal(t, 2, plan.Days[1].DayNumber)
	})

	t.Run("missing duration defaults to day count", func(t *testing.T) {
		txt := `{"title": "T", "days": [{"stops": [{"name": "A"}]}]}`
		plan, err := parseGeneratedPlan(txt)
		require.NoError(t, err)
		assert.Equal(t, 1, plan.DurationDays)
	})

	t.Run("no days is an error", func(t *testing.T) {
		_, err := parseGeneratedPlan(`{"title": "T", "days": []}`)
		require.Error(t, err)
	})

	t.Run("invalid JSON is an error", func(t *testing.T) {
		_, err := parseGeneratedPlan(`sorry, I cannot help with that`)
		require.Error(t, err)
	})
}

func TestParseModifiedDays(t *testing.T) {
	t.Run("returns days", func(t *testing.T) {
		txt := `{"days": [{"day_number": 1, "stops": [{"name": "A", "city": "Izmir"}]}]}`
		days, err := parseModifiedDays(txt)
		require.NoError(t, err)
		require.Len(t, days, 1)
		assert.Equal(t, "Izmir", days[0].Stops[0].Location.City)
	})

	t.Run("empty rework is an error", func(t *testing.T) {
		_, err := parseModifiedDays(`{"days": []}`)
		require.Error(t, err)
	})
}

func TestParseBudget(t *testing.T) {
	budget, err := parseBudget("```json\n" + `{"currency": "EUR", "amount": 850.5, "per_person": true}` + "\n```")
	require.NoError(t, err)
	assert.Equal(t, types.Budget{Currency: "EUR", Amount: 850.5, PerPerson: true}, budget)

	_, err = parseBudget("not json")
	require.Error(t, err)
}

func TestFallbackPlan(t *testing.T) {
	t.Run("uses preferences", func(t *testing.T) {
		plan := FallbackPlan("see the coast", types.TripPreferences{DurationDays: 3, StartingCity: "Izmir"})
		assert.Equal(t, "Trip draft: Izmir", plan.Title)
		require.Len(t, plan.Days, 3)
		assert.Equal(t, 2, plan.Days[1].DayNumber)
		require.Len(t, plan.Days[0].Stops, 1)
		assert.Equal(t, "Explore Izmir", plan.Days[0].Stops[0].Name)
		assert.Equal(t, "Izmir", plan.Days[0].Stops[0].Location.City)
		assert.Equal(t, "see the coast", plan.Days[0].Stops[0].Description)
	})

	t.Run("empty preferences still produce one day", func(t *testing.T) {
		plan := FallbackPlan("", types.TripPreferences{})
		require.Len(t, plan.Days, 1)
		assert.Equal(t, "Trip draft", plan.Title)
	})
}

func TestEnforceDuration(t *testing.T) {
	twoDays := func() *types.GeneratedPlan {
		return &types.GeneratedPlan{
			DurationDays: 2,
			Days: []types.Day{
				{DayNumber: 1, Title: "Old town", Stops: []types.Stop{{Name: "Castle"}}},
				{DayNumber: 2, Title: "Harbor", Stops: []types.Stop{{Name: "Pier"}}},
			},
		}
	}

	t.Run("trims extra days", func(t *testing.T) {
		plan := twoDays()
		EnforceDuration(plan, 1)
		require.Len(t, plan.Days, 1)
		assert.Equal(t, "Old town", plan.Days[0].Title)
		assert.Equal(t, 1, plan.DurationDays)
	})

	t.Run("pads missing days and renumbers", func(t *testing.T) {
		plan := twoDays()
		EnforceDuration(plan, 4)
		require.Len(t, plan.Days, 4)
		assert.Equal(t, 4, plan.DurationDays)
		for i, day := range plan.Days {
			assert.Equal(t, i+1, day.DayNumber)
		}
		assert.Equal(t, "Day 3", plan.Days[2].Title)
		assert.Empty(t, plan.Days[2].Stops)
	})

	t.Run("exact count is untouched", func(t *testing.T) {
		plan := twoDays()
		EnforceDuration(plan, 2)
		require.Len(t, plan.Days, 2)
		assert.Equal(t, "Harbor", plan.Days[1].Title)
	})

	t.Run("unset duration keeps whatever was generated", func(t *testing.T) {
		plan := twoDays()
		EnforceDuration(plan, 0)
		require.Len(t, plan.Days, 2)
		assert.Equal(t, 2, plan.DurationDays)
	})
}
