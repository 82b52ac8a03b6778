package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dewataksu/dashboard/pkg/dashsdk"
	"github.com/dewataksu/dashboard/pkg/httpx"
	"github.com/dewataksu/dashboard/pkg/slogx"
)

// writeSDKError renders an error returned by the SDK. Validation failures
// carry their field map; session failures tell the UI to go to the login
// page.
func writeSDKError(w http.ResponseWriter, r *http.Request, err error) {
	log := slogx.FromContext(r.Context())

	if errors.Is(err, dashsdk.ErrNotAdmin) || errors.Is(err, dashsdk.ErrNoToken) {
		httpx.WriteError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var apiErr *dashsdk.APIError
	if !errors.As(err, &apiErr) {
		log.Error("dashboard request failed", "error", err)
		writeInternalError(w)
		return
	}

	switch apiErr.Kind {
	case dashsdk.KindValidation:
		var fields map[string]string
		if err := json.Unmarshal(apiErr.Errors, &fields); err == nil && len(fields) > 0 {
			httpx.WriteError(w, http.StatusUnprocessableEntity, fields)
			return
		}
		status := apiErr.StatusCode
		if status < 400 || status > 499 {
			status = http.StatusBadRequest
		}
		httpx.WriteError(w, status, apiErr.Message)
	case dashsdk.KindNotFound:
		httpx.WriteError(w, http.StatusNotFound, apiErr.Message)
	case dashsdk.KindForbidden:
		httpx.WriteError(w, http.StatusForbidden, apiErr.Message)
	case dashsdk.KindUnauthorized, dashsdk.KindSessionExpired:
		httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorBody{
			Errors:   apiErr.Message,
			Redirect: LoginPath,
		})
	default:
		log.Warn("backend call failed", "kind", apiErr.Kind, "status", apiErr.StatusCode, "error", err)
		httpx.WriteError(w, http.StatusBadGateway, apiErr.Message)
	}
}

func writeInternalError(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
}

// decodeBody reads a JSON request body into v, answering 400 itself when it
// cannot.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

const maxJSONBody = 1 << 20
