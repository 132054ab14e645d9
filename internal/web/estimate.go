package web

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/raviprakash-14/scrapify/internal/pickup"
	"github.com/raviprakash-14/scrapify/internal/valuation"
	"github.com/raviprakash-14/scrapify/internal/wizard"
	"github.com/rs/zerolog/log"
)

func (s *Server) wizardFor(w http.ResponseWriter, r *http.Request) *wizard.Wizard {
	return s.wizards.Get(sessionID(w, r))
}

// peekWizard returns the caller's wizard for read-only use. Callers
// without a session get a fresh wizard that is not registered.
func (s *Server) peekWizard(r *http.Request) *wizard.Wizard {
	id, _ := cookieSessionID(r)
	return s.wizards.Peek(id)
}

type valuationRequest struct {
	PhotoDataURI string `json:"photoDataUri"`
	Description  string `json:"description"`
}

// handleValuation runs the valuation contract once, outside any wizard.
func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	var body valuationRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	req, err := valuation.NewRequest(body.PhotoDataURI, body.Description)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	estimation, err := s.estimator.Estimate(r.Context(), req)
	if err != nil {
		log.Warn().Err(err).Msg("valuation failed")
		writeError(w, http.StatusBadGateway, valuation.ErrEstimationFailed.Error())
		return
	}
	writeJSON(w, http.StatusOK, estimation.Result)
}

func (s *Server) handleEstimateView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.peekWizard(r).View())
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	photo := s.peekWizard(r).Photo()
	if photo == nil {
		writeError(w, http.StatusNotFound, "no photo")
		return
	}
	w.Header().Set("Content-Type", photo.MIMEType)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(photo.Data)
}

type photoRequest struct {
	PhotoDataURI string `json:"photoDataUri"`
}

// handleSetPhoto accepts either JSON with encoded image data or a
// multipart upload with a "photo" file field.
func (s *Server) handleSetPhoto(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFor(w, r)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		data, fileType, ok := readMultipartPhoto(w, r)
		if !ok {
			return
		}
		view, err := wz.SetPhotoData(data, fileType)
		writeWizard(w, view, err)
		return
	}

	var body photoRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	view, err := wz.SetPhoto(body.PhotoDataURI)
	writeWizard(w, view, err)
}

func readMultipartPhoto(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	file, header, err := r.FormFile("photo")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		default:
			writeError(w, http.StatusBadRequest, "missing photo file field")
		}
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, valuation.MaxPhotoBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read photo")
		return nil, "", false
	}
	if len(data) > valuation.MaxPhotoBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "photo too large")
		return nil, "", false
	}
	return data, header.Header.Get("Content-Type"), true
}

type descriptionRequest struct {
	Description string `json:"description"`
}

func (s *Server) handleSetDescription(w http.ResponseWriter, r *http.Request) {
	var body descriptionRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	view, err := s.wizardFor(w, r).SetDescription(body.Description)
	writeWizard(w, view, err)
}

type inputModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetInputMode(w http.ResponseWriter, r *http.Request) {
	var body inputModeRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	view, err := s.wizardFor(w, r).SetInputMode(wizard.InputMode(strings.ToLower(body.Mode)))
	writeWizard(w, view, err)
}

type submitRequest struct {
	PhotoDataURI *string `json:"photoDataUri"`
	Description  *string `json:"description"`
}

// handleSubmit optionally applies photo and description from the body,
// then submits. A dropped connection does not cancel the valuation.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	wz := s.wizardFor(w, r)

	var body submitRequest
	present, ok := decodeOptionalJSON(w, r, &body)
	if !ok {
		return
	}
	if present {
		if body.PhotoDataURI != nil {
			if view, err := wz.SetPhoto(*body.PhotoDataURI); err != nil {
				writeWizard(w, view, err)
				return
			}
		}
		if body.Description != nil {
			if view, err := wz.SetDescription(*body.Description); err != nil {
				writeWizard(w, view, err)
				return
			}
		}
	}

	view, err := wz.Submit(context.WithoutCancel(r.Context()))
	writeWizard(w, view, err)
}

func (s *Server) handleProceedToSchedule(w http.ResponseWriter, r *http.Request) {
	view, err := s.wizardFor(w, r).ProceedToSchedule()
	writeWizard(w, view, err)
}

func (s *Server) handleBackToResult(w http.ResponseWriter, r *http.Request) {
	view, err := s.wizardFor(w, r).BackToResult()
	writeWizard(w, view, err)
}

type pickupRequest struct {
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
}

func (s *Server) handleSetPickup(w http.ResponseWriter, r *http.Request) {
	var body pickupRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	wz := s.wizardFor(w, r)
	view := wz.View()

	if body.Date != "" {
		date, err := pickup.ParseDate(body.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		v, err := wz.SelectDate(date)
		if err != nil {
			writeWizard(w, v, err)
			return
		}
		view = v
	}
	if body.TimeSlot != "" {
		v, err := wz.SelectTimeSlot(pickup.TimeSlot(body.TimeSlot))
		if err != nil {
			writeWizard(w, v, err)
			return
		}
		view = v
	}
	writeWizard(w, view, nil)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	view, err := s.wizardFor(w, r).ConfirmPickup(context.WithoutCancel(r.Context()))
	writeWizard(w, view, err)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	view, err := s.wizardFor(w, r).Reset()
	writeWizard(w, view, err)
}
