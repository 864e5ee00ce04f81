// Package handler implements the HTTP handlers for the Trip Planner API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, pipeline.go) but all share the same Server
// struct so they can access its dependencies.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/trip-planner/internal/domain"
	"github.com/pkordes/trip-planner/internal/pipeline"
	"github.com/pkordes/trip-planner/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, in service.NewTrip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.TripDetail, error)
}

// PipelineInspector exposes the pipeline snapshot served to operators.
type PipelineInspector interface {
	Status() pipeline.Status
}

// Server holds the handler dependencies. Wire it in main.go via Routes().
type Server struct {
	trips TripServicer
	pipe  PipelineInspector
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, pipe PipelineInspector) *Server {
	return &Server{trips: trips, pipe: pipe}
}

// Routes returns the router for the full API surface.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Post("/trips", s.CreateTrip)
	r.Get("/trips/{id}", s.GetTrip)
	r.Get("/pipeline/status", s.GetPipelineStatus)
	return r
}
