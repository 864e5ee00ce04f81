package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/service"
)

// CreateTrip handles POST /trips. The trip is persisted and returned
// immediately; weather and advice are produced asynchronously and appear on
// subsequent GETs.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body createTripRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid request body: "+err.Error())
		return
	}

	trip, err := s.trips.Create(r.Context(), service.NewTrip{
		StartDate:   body.StartDate.Time,
		Duration:    body.Duration,
		City:        body.City,
		Country:     body.Country,
		ZipCode:     body.ZipCode,
		Preferences: body.Preferences,
	})
	if err != nil {
		if errors.Is(err, domain.ErrValidation) {
			writeError(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create trip")
		return
	}

	writeJSON(w, http.StatusCreated, tripToResponse(trip))
}

// GetTrip handles GET /trips/{id}, returning the trip with its nested
// weather series and advice records.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a UUID")
		return
	}

	detail, err := s.trips.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "trip not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load trip")
		return
	}

	writeJSON(w, http.StatusOK, tripDetailToResponse(detail))
}

// --- request/response types -------------------------------------------------

// createTripRequest is the POST /trips body. Dates are date-only strings
// ("2024-06-01"); openapi_types.Date enforces the format on decode.
type createTripRequest struct {
	StartDate   openapi_types.Date `json:"start_date"`
	Duration    int                `json:"duration"`
	City        string             `json:"city"`
	Country     string             `json:"country"`
	ZipCode     string             `json:"zip_code,omitempty"`
	Preferences string             `json:"preferences,omitempty"`
}

type tripResponse struct {
	ID          uuid.UUID          `json:"id"`
	StartDate   openapi_types.Date `json:"start_date"`
	EndDate     openapi_types.Date `json:"end_date"`
	Duration    int                `json:"duration"`
	City        string             `json:"city"`
	Country     string             `json:"country"`
	ZipCode     string             `json:"zip_code,omitempty"`
	Timezone    string             `json:"timezone"`
	Preferences string             `json:"preferences,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

type weatherPointResponse struct {
	Time        time.Time `json:"ts"`
	Temperature float64   `json:"temperature"`
	Code        int       `json:"code"`
	Condition   string    `json:"condition"`
}

type adviseResponse struct {
	ID        uuid.UUID           `json:"id"`
	Kind      string              `json:"kind"`
	ForDate   *openapi_types.Date `json:"for_date,omitempty"`
	State     string              `json:"state"`
	Advice    string              `json:"advice,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type tripDetailResponse struct {
	tripResponse
	Weather []weatherPointResponse `json:"weather_series"`
	Advises []adviseResponse       `json:"advises"`
}

func tripToResponse(t domain.Trip) tripResponse {
	return tripResponse{
		ID:          t.ID,
		StartDate:   openapi_types.Date{Time: t.StartDate},
		EndDate:     openapi_types.Date{Time: t.EndDate},
		Duration:    t.Duration(),
		City:        t.Destination.City,
		Country:     t.Destination.Country,
		ZipCode:     t.Destination.ZipCode,
		Timezone:    t.Destination.Timezone,
		Preferences: t.Preferences,
		CreatedAt:   t.CreatedAt,
	}
}

func tripDetailToResponse(d domain.TripDetail) tripDetailResponse {
	resp := tripDetailResponse{
		tripResponse: tripToResponse(d.Trip),
		Weather:      make([]weatherPointResponse, len(d.Weather)),
		Advises:      make([]adviseResponse, len(d.Advises)),
	}
	for i, p := range d.Weather {
		resp.Weather[i] = weatherPointResponse{
			Time:        p.Time,
			Temperature: p.Temperature,
			Code:        p.Code,
			Condition:   p.Condition,
		}
	}
	for i, a := range d.Advises {
		resp.Advises[i] = adviseToResponse(a)
	}
	return resp
}

func adviseToResponse(a domain.AdviseRecord) adviseResponse {
	resp := adviseResponse{
		ID:        a.ID,
		Kind:      string(a.Kind),
		State:     string(a.State),
		Advice:    a.Advice,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.ForDate != nil {
		fd := openapi_types.Date{Time: *a.ForDate}
		resp.ForDate = &fd
	}
	return resp
}
