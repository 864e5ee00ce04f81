package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"
)

// GetPipelineStatus handles GET /pipeline/status. It is the operator view
// of the background pipeline: queue depths, in-flight counts, and the full
// dead-letter logs. A trip that never gains weather data shows up here with
// its captured failure reason instead of failing silently.
func (s *Server) GetPipelineStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.pipe.Status()

	resp := pipelineStatusResponse{
		Queues:            make([]queueStatusResponse, len(st.Queues)),
		TripDeadLetters:   make([]tripDeadLetterResponse, len(st.TripDeadLetters)),
		AdviseDeadLetters: make([]adviseDeadLetterResponse, len(st.AdviseDeadLetters)),
	}
	for i, q := range st.Queues {
		resp.Queues[i] = queueStatusResponse{Name: q.Name, Depth: q.Depth, InFlight: q.InFlight}
	}
	for i, e := range st.TripDeadLetters {
		resp.TripDeadLetters[i] = tripDeadLetterResponse{
			TripID: e.Item.ID,
			City:   e.Item.Destination.City,
			Reason: e.Reason,
			At:     e.At,
		}
	}
	for i, e := range st.AdviseDeadLetters {
		d := adviseDeadLetterResponse{
			AdviseID: e.Item.ID,
			TripID:   e.Item.TripID,
			Reason:   e.Reason,
			At:       e.At,
		}
		if e.Item.ForDate != nil {
			fd := openapi_types.Date{Time: *e.Item.ForDate}
			d.ForDate = &fd
		}
		resp.AdviseDeadLetters[i] = d
	}

	writeJSON(w, http.StatusOK, resp)
}

type queueStatusResponse struct {
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	InFlight int    `json:"in_flight"`
}

type tripDeadLetterResponse struct {
	TripID uuid.UUID `json:"trip_id"`
	City   string    `json:"city"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

type adviseDeadLetterResponse struct {
	AdviseID uuid.UUID           `json:"advise_id"`
	TripID   uuid.UUID           `json:"trip_id"`
	ForDate  *openapi_types.Date `json:"for_date,omitempty"`
	Reason   string              `json:"reason"`
	At       time.Time           `json:"at"`
}

type pipelineStatusResponse struct {
	Queues            []queueStatusResponse      `json:"queues"`
	TripDeadLetters   []tripDeadLetterResponse   `json:"trip_dead_letters"`
	AdviseDeadLetters []adviseDeadLetterResponse `json:"advise_dead_letters"`
}
