package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/summitgear/internal/booking"
	"github.com/hongminglow/summitgear/internal/http/respond"
	"github.com/hongminglow/summitgear/internal/logging"
	"github.com/hongminglow/summitgear/internal/models/dto"
)

// BookingHandler exposes the booking engine and status workflow.
type BookingHandler struct {
	bookings *booking.Service
}

// NewBookingHandler wires the booking routes to svc.
func NewBookingHandler(svc *booking.Service) *BookingHandler {
	return &BookingHandler{bookings: svc}
}

// Register attaches booking routes. Static segments are registered before
// /{id} so they are not captured as ids.
func (h *BookingHandler) Register(r *mux.Router, g Guards) {
	g = g.withDefaults()
	r.Handle("/api/bookings", g.Authenticated(http.HandlerFunc(h.create))).Methods(http.MethodPost)
	r.Handle("/api/bookings", g.Admin(http.HandlerFunc(h.listAll))).Methods(http.MethodGet)
	r.Handle("/api/bookings/estimate", g.Authenticated(http.HandlerFunc(h.estimate))).Methods(http.MethodPost)
	r.Handle("/api/bookings/my-bookings", g.Authenticated(http.HandlerFunc(h.listMine))).Methods(http.MethodGet)
	r.Handle("/api/bookings/{id}", g.Authenticated(http.HandlerFunc(h.get))).Methods(http.MethodGet)
	r.Handle("/api/bookings/{id}/status", g.Admin(http.HandlerFunc(h.updateStatus))).Methods(http.MethodPatch)
}

func toInput(req dto.CreateBookingRequest) booking.CreateInput {
	in := booking.CreateInput{StartDate: req.StartDate, EndDate: req.EndDate}
	in.Items = make([]booking.Line, 0, len(req.Items))
	for _, item := range req.Items {
		in.Items = append(in.Items, booking.Line{GearID: item.GearID, Quantity: item.Quantity})
	}
	return in
}

func (h *BookingHandler) create(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req dto.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Failure(w, r, err)
		return
	}
	created, err := h.bookings.Create(r.Context(), id.UserID, toInput(req))
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	logging.FromContext(r.Context()).WithField("booking_id", created.ID).Info("booking created")
	respond.JSON(w, r, http.StatusCreated, "Booking created successfully", created)
}

func (h *BookingHandler) estimate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Failure(w, r, err)
		return
	}
	quote, err := h.bookings.Estimate(r.Context(), toInput(req))
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "estimate", dto.EstimateResponse{
		DurationDays: quote.DurationDays,
		TotalPrice:   quote.TotalPrice,
	})
}

func (h *BookingHandler) listMine(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	list, err := h.bookings.ListForUser(r.Context(), id.UserID)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "bookings", list)
}

func (h *BookingHandler) listAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.bookings.ListAll(r.Context())
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "bookings", list)
}

func (h *BookingHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	b, err := h.bookings.Get(r.Context(), mux.Vars(r)["id"], id.UserID, id.Role)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	respond.JSON(w, r, http.StatusOK, "booking", b)
}

func (h *BookingHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateBookingStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respond.Failure(w, r, err)
		return
	}
	updated, err := h.bookings.UpdateStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		respond.Failure(w, r, err)
		return
	}
	logging.FromContext(r.Context()).WithFields(logrus.Fields{
		"booking_id": updated.ID,
		"status":     updated.Status,
	}).Info("booking status updated")
	respond.JSON(w, r, http.StatusOK, "Booking status updated", updated)
}
