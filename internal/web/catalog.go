package web

import (
	"errors"
	"net/http"

	"github.com/raviprakash-14/scrapify/internal/catalog"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleNav(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.Navigation(r.URL.Query().Get("path")))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, catalog.DashboardData())
}

func (s *Server) handleRewards(w http.ResponseWriter, r *http.Request) {
	rewards, err := catalog.RewardsCatalog()
	if err != nil {
		log.Error().Err(err).Msg("failed to load rewards catalog")
		writeError(w, http.StatusInternalServerError, "rewards unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

type profileResponse struct {
	Profile catalog.Profile `json:"profile"`
	Notice  *noticeBody     `json:"notice,omitempty"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id, _ := cookieSessionID(r)
	writeJSON(w, http.StatusOK, profileResponse{Profile: s.profiles.Peek(id).Get()})
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var body catalog.ProfileUpdate
	if !decodeJSON(w, r, &body) {
		return
	}
	p := s.profiles.Get(sessionID(w, r))
	profile, err := p.Update(body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, profileResponse{
			Profile: profile,
			Notice:  &noticeBody{Title: "Invalid Profile", Message: profileErrorMessage(err), Kind: "invalid_input"},
		})
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Profile: profile,
		Notice:  &noticeBody{Title: catalog.ProfileUpdatedTitle, Message: catalog.ProfileUpdatedMessage, Kind: "success"},
	})
}

func profileErrorMessage(err error) string {
	switch {
	case errors.Is(err, catalog.ErrInvalidName):
		return "Please enter your name."
	case errors.Is(err, catalog.ErrInvalidEmail):
		return "Please enter a valid email address."
	case errors.Is(err, catalog.ErrInvalidAvatar):
		return "The avatar could not be read. Please upload an image."
	default:
		return "Your profile could not be updated."
	}
}
