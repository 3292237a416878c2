// Package planner wraps the Gemini API as the trip plan generator and
// budget estimator.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/routecraft/routecraft/internal/types"
)

const defaultModel = "gemini-2.0-flash"

var _ Generator = (*GeminiGenerator)(nil)

// Generator is the plan generation capability consumed by the itinerary
// service. Implementations are stateless across calls.
type Generator interface {
	GeneratePlan(ctx context.Context, brief string, prefs types.TripPreferences) (*types.GeneratedPlan, error)
	ModifyPlan(ctx context.Context, days []types.Day, changeRequest, cityLock string) ([]types.Day, error)
	EstimateBudget(ctx context.Context, itinerary *types.Itinerary) (types.Budget, error)
}

type Config struct {
	Model       string
	Temperature float32
}

type GeminiGenerator struct {
	logger      *slog.Logger
	client      *genai.Client
	model       string
	temperature float32
}

func NewGeminiGenerator(ctx context.Context, cfg Config, logger *slog.Logger) (*GeminiGenerator, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.5
	}
	return &GeminiGenerator{
		logger:      logger,
		client:      client,
		model:       model,
		temperature: temperature,
	}, nil
}

func (g *GeminiGenerator) generate(ctx context.Context, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](g.temperature)}
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}

	var txt string
	for _, candidate := range result.Candidates {
		if candidate.Content != nil && len(candidate.Content.Parts) > 0 {
			txt = candidate.Content.Parts[0].Text
			break
		}
	}
	if txt == "" {
		return "", fmt.Errorf("no valid content in generation response")
	}
	return txt, nil
}

func (g *GeminiGenerator) GeneratePlan(ctx context.Context, brief string, prefs types.TripPreferences) (*types.GeneratedPlan, error) {
	ctx, span := otel.Tracer("PlanGenerator").Start(ctx, "GeneratePlan")
	defer span.End()
	span.SetAttributes(attribute.Int("prefs.duration_days", prefs.DurationDays))

	txt, err := g.generate(ctx, GetTripPlanPrompt(brief, prefs))
	if err != nil {
		return nil, err
	}

	plan, err := parseGeneratedPlan(txt)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to parse generated plan", slog.Any("error", err))
		return nil, err
	}

	g.logger.InfoContext(ctx, "Plan generated",
		slog.String("title", plan.Title),
		slog.Int("days", len(plan.Days)))
	return plan, nil
}

func (g *GeminiGenerator) ModifyPlan(ctx context.Context, days []types.Day, changeRequest, cityLock string) ([]types.Day, error) {
	ctx, span := otel.Tracer("PlanGenerator").Start(ctx, "ModifyPlan")
	defer span.End()

	txt, err := g.generate(ctx, GetPlanModificationPrompt(days, changeRequest, cityLock))
	if err != nil {
		return nil, err
	}

	modified, err := parseModifiedDays(txt)
	if err != nil {
		g.logger.ErrorContext(ctx, "Failed to parse modified plan", slog.Any("error", err))
		return nil, err
	}
	return modified, nil
}

func (g *GeminiGenerator) EstimateBudget(ctx context.Context, itinerary *types.Itinerary) (types.Budget, error) {
	ctx, span := otel.Tracer("PlanGenerator").Start(ctx, "EstimateBudget")
	defer span.End()

	txt, err := g.generate(ctx, GetBudgetEstimatePrompt(itinerary))
	if err != nil {
		return types.Budget{}, err
	}
	return parseBudget(txt)
}

// EnforceDuration trims or pads the plan so it carries exactly durationDays
// days. The generator is instructed to return the requested count but is not
// guaranteed to comply, and the stored itinerary must. Padded days are empty
// and renumbered sequentially.
func EnforceDuration(plan *types.GeneratedPlan, durationDays int) {
	if durationDays <= 0 {
		return
	}
	if len(plan.Days) > durationDays {
		plan.Days = plan.Days[:durationDays]
	}
	for len(plan.Days) < durationDays {
		plan.Days = append(plan.Days, types.Day{
			Title: fmt.Sprintf("Day %d", len(plan.Days)+1),
			Stops: []types.Stop{},
		})
	}
	for i := range plan.Days {
		plan.Days[i].DayNumber = i + 1
	}
	plan.DurationDays = durationDays
}

// FallbackPlan synthesizes a local placeholder plan so initial generation
// degrades instead of failing when the generator is unavailable.
func FallbackPlan(brief string, prefs types.TripPreferences) *types.GeneratedPlan {
	durationDays := prefs.DurationDays
	if durationDays <= 0 {
		durationDays = 1
	}
	city := prefs.StartingCity

	title := "Trip draft"
	if city != "" {
		title = fmt.Sprintf("Trip draft: %s", city)
	}

	days := make([]types.Day, 0, durationDays)
	for i := 1; i <= durationDays; i++ {
		stopName := "Explore the area"
		if city != "" {
			stopName = fmt.Sprintf("Explore %s", city)
		}
		days = append(days, types.Day{
			DayNumber: i,
			Title:     fmt.Sprintf("Day %d", i),
			Stops: []types.Stop{{
				Name:        stopName,
				Description: brief,
				Location:    types.StopLocation{City: city},
			}},
		})
	}
	return &types.GeneratedPlan{
		Title:        title,
		Summary:      "Automatically generated placeholder. Edit the days to start planning.",
		DurationDays: durationDays,
		Days:         days,
	}
}
