package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"gigbook/internal/auth"
	"gigbook/internal/domain"

	"github.com/go-chi/chi/v5"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.InvalidInput(name + " must be a positive integer")
	}
	return id, nil
}

func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domain.InvalidInput(name + " must be an RFC 3339 timestamp")
	}
	return t, nil
}

func profileFilter(r *http.Request) domain.ProfileFilter {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	return domain.ProfileFilter{
		City:   strings.TrimSpace(q.Get("city")),
		Genre:  strings.ToLower(strings.TrimSpace(q.Get("genre"))),
		Limit:  limit,
		Offset: offset,
	}
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acc, err := s.svc.Users.Me(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Profiles.ListArtists(r.Context(), profileFilter(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := s.svc.Profiles.GetArtist(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handleCreateArtist(w http.ResponseWriter, r *http.Request) {
	var req artistRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	artist, err := s.svc.Profiles.CreateArtist(r.Context(), auth.UserFromContext(r.Context()), req.profile())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, artist)
}

func (s *Server) handleUpdateArtist(w http.ResponseWriter, r *http.Request) {
	var req artistRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	artist, err := s.svc.Profiles.UpdateArtist(r.Context(), auth.UserFromContext(r.Context()), req.profile())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handleListVenues(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Profiles.ListVenues(r.Context(), profileFilter(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetVenue(w http.ResponseWriter, r *http.Request) {
	venue, err := s.svc.Profiles.GetVenue(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venue)
}

func (s *Server) handleCreateVenue(w http.ResponseWriter, r *http.Request) {
	var req venueRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	venue, err := s.svc.Profiles.CreateVenue(r.Context(), auth.UserFromContext(r.Context()), req.profile())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, venue)
}

func (s *Server) handleUpdateVenue(w http.ResponseWriter, r *http.Request) {
	var req venueRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	venue, err := s.svc.Profiles.UpdateVenue(r.Context(), auth.UserFromContext(r.Context()), req.profile())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venue)
}

func (s *Server) handleListUnavailability(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Availability.ListUnavailability(r.Context(), auth.UserFromContext(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddUnavailability(w http.ResponseWriter, r *http.Request) {
	var req unavailabilityRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.svc.Availability.AddUnavailability(r.Context(), auth.UserFromContext(r.Context()), req.Start, req.End, req.Reason)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     u.ID,
		"start":  u.Start,
		"end":    u.End,
		"reason": u.Reason,
	})
}

func (s *Server) handleDeleteUnavailability(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Availability.DeleteUnavailability(r.Context(), auth.UserFromContext(r.Context()), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCheckAvailability(w http.ResponseWriter, r *http.Request) {
	start, err := queryTime(r, "start")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := queryTime(r, "end")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if start.IsZero() || end.IsZero() {
		s.writeError(w, r, domain.InvalidInput("start and end are required"))
		return
	}

	report, err := s.svc.Availability.CheckAvailability(r.Context(), chi.URLParam(r, "slug"), start, end)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"available": !report.HasConflict(),
		"conflicts": report,
	})
}
