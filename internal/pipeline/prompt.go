package pipeline

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/pkordes/trip-planner/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// promptFuncs are the helpers available inside the prompt templates.
var promptFuncs = template.FuncMap{
	"fmtDate": func(t time.Time) string { return t.Format("2006-01-02") },
	"fmtHour": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	"fmtTemp": func(c float64) string { return fmt.Sprintf("%.1f°C", c) },
}

// PromptBuilder renders the three system prompts the advise worker sends per
// generation: a static identity prompt, a per-trip context prompt, and a
// per-day prompt.
type PromptBuilder struct {
	templates *template.Template
}

// NewPromptBuilder parses the embedded prompt templates.
func NewPromptBuilder() (*PromptBuilder, error) {
	t, err := template.New("prompts").Funcs(promptFuncs).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("pipeline.NewPromptBuilder: %w", err)
	}
	return &PromptBuilder{templates: t}, nil
}

// Identity renders the static system prompt describing the assistant's role.
func (b *PromptBuilder) Identity() (string, error) {
	return b.render("identity.tmpl", nil)
}

// TripContext renders the per-trip prompt: destination, date range,
// preferences, and the full hourly forecast.
func (b *PromptBuilder) TripContext(trip domain.Trip, weather []domain.WeatherPoint) (string, error) {
	return b.render("trip.tmpl", struct {
		Trip    domain.Trip
		Weather []domain.WeatherPoint
	}{trip, weather})
}

// priorActivity is one already-completed sibling suggestion, included in the
// day prompt so the model does not repeat itself.
type priorActivity struct {
	Day    int
	Date   time.Time
	Advice string
}

// DayContext renders the per-day prompt: day number, that day's forecast
// subset, and the prior completed activities in date order.
func (b *PromptBuilder) DayContext(trip domain.Trip, date time.Time, dayNumber int, weather []domain.WeatherPoint, prior []domain.AdviseRecord) (string, error) {
	priors := make([]priorActivity, 0, len(prior))
	for _, rec := range prior {
		if rec.ForDate == nil {
			continue
		}
		priors = append(priors, priorActivity{
			Day:    rec.DayNumber(trip.StartDate),
			Date:   *rec.ForDate,
			Advice: rec.Advice,
		})
	}

	return b.render("day.tmpl", struct {
		DayNumber int
		Date      time.Time
		Weather   []domain.WeatherPoint
		Prior     []priorActivity
	}{dayNumber, date, weather, priors})
}

func (b *PromptBuilder) render(name string, data any) (string, error) {
	var sb strings.Builder
	if err := b.templates.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("pipeline.PromptBuilder: rendering %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}
