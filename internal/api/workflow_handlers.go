package api

import (
	"net/http"
	"strings"

	"gigbook/internal/auth"
	"gigbook/internal/domain"
	"gigbook/internal/export"
	"gigbook/internal/models"
	"gigbook/internal/service"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleRequestBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := auth.UserFromContext(r.Context())

	// A venue owner may omit venue_id; it defaults to their own venue.
	if req.VenueID == 0 {
		acc, err := s.svc.Users.Me(r.Context(), actor)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if acc.Venue == nil {
			s.writeError(w, r, domain.InvalidInput("venue_id is required"))
			return
		}
		req.VenueID = acc.Venue.ID
	}

	booking, err := s.svc.Bookings.RequestBooking(r.Context(), actor, service.BookingRequest{
		VenueID:   req.VenueID,
		ArtistID:  req.ArtistID,
		EventDate: req.EventDate,
		Hours:     req.Hours,
		Note:      req.Note,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

func (s *Server) handleListBookings(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	list, err := s.svc.Bookings.ListBookings(r.Context(), auth.UserFromContext(r.Context()), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.GetBooking(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleRespondBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req respondRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.Respond(r.Context(), auth.UserFromContext(r.Context()), id, req.Action)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.Cancel(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *Server) handleCreateEventForBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	event, created, err := s.svc.Events.CreateEventForBooking(r.Context(), auth.UserFromContext(r.Context()), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, event)
}

func (s *Server) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	venue, list, err := s.svc.Bookings.ListVenueBookings(r.Context(), auth.UserFromContext(r.Context()), from, to)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	f, err := export.Bookings(venue.Name, from, to, list)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(venue.Slug, s.nowFunc())+`"`)
	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Int64("venue_id", venue.ID).Msg("Write export error")
	}
}

func (s *Server) handleRequestEvent(w http.ResponseWriter, r *http.Request) {
	venueID, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req eventRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Events.RequestEventAtVenue(r.Context(), auth.UserFromContext(r.Context()), venueID, req.request())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusBadRequest, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleApproveEvent(w http.ResponseWriter, r *http.Request) {
	s.decideEvent(w, r, models.EventPublished)
}

func (s *Server) handleDeclineEvent(w http.ResponseWriter, r *http.Request) {
	s.decideEvent(w, r, models.EventDeclined)
}

func (s *Server) decideEvent(w http.ResponseWriter, r *http.Request, next string) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	actor := auth.UserFromContext(r.Context())

	var event *models.Event
	if next == models.EventPublished {
		event, err = s.svc.Events.ApproveEvent(r.Context(), actor, id)
	} else {
		event, err = s.svc.Events.DeclineEvent(r.Context(), actor, id)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, event)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Events.GetEventBySlug(r.Context(), auth.UserFromContext(r.Context()), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleListVenueEvents(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	list, err := s.svc.Events.ListVenueEvents(r.Context(), auth.UserFromContext(r.Context()), status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
