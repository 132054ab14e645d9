package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/raviprakash-14/scrapify/internal/wizard"
	"github.com/rs/zerolog/log"
)

type noticeBody struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

type errorBody struct {
	Error  string       `json:"error,omitempty"`
	Notice *noticeBody  `json:"notice,omitempty"`
	View   *wizard.View `json:"view,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

// decodeJSON reads a JSON body into dst. It writes the error response
// itself and returns false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	present, ok := decodeOptionalJSON(w, r, dst)
	if ok && !present {
		writeError(w, http.StatusBadRequest, "request body is empty")
		return false
	}
	return ok
}

// decodeOptionalJSON is decodeJSON for endpoints where the body may be
// absent. present reports whether a body was read.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) (present, ok bool) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return false, true
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		default:
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		}
		return false, false
	}
	return true, true
}

func noticeStatus(kind wizard.Kind) int {
	switch kind {
	case wizard.KindEstimationFailed, wizard.KindScheduleFailed:
		return http.StatusBadGateway
	default:
		return http.StatusUnprocessableEntity
	}
}

// writeWizard renders the outcome of a wizard operation.
func writeWizard(w http.ResponseWriter, view wizard.View, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, view)
		return
	}

	if notice, ok := wizard.AsNotice(err); ok {
		if notice.Err != nil {
			log.Debug().Err(notice.Err).Str("kind", string(notice.Kind)).Msg("wizard notice")
		}
		writeJSON(w, noticeStatus(notice.Kind), errorBody{
			Notice: &noticeBody{Title: notice.Title, Message: notice.Message, Kind: string(notice.Kind)},
			View:   &view,
		})
		return
	}

	switch {
	case errors.Is(err, wizard.ErrBusy), errors.Is(err, wizard.ErrWrongStep):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), View: &view})
	default:
		log.Error().Err(err).Msg("unexpected wizard error")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", View: &view})
	}
}
