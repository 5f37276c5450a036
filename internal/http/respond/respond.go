package respond

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/summitgear/internal/apperr"
	"github.com/hongminglow/summitgear/internal/logging"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, r *http.Request, status int, message string, data any) {
	write(w, r, status, Envelope{Code: status, Message: message, Data: data})
}

// Failure writes err using its application kind. Internal errors are logged with
// their cause and answered with a generic message.
func Failure(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	status := appErr.HTTPStatus()

	entry := logging.FromContext(r.Context()).WithFields(logrus.Fields{
		"code":   appErr.Code,
		"status": status,
	})
	switch {
	case status >= http.StatusInternalServerError:
		entry.WithError(appErr.Err).Error("request failed")
	case appErr.Err != nil:
		entry.WithError(appErr.Err).Debug("request rejected")
	}

	write(w, r, status, Envelope{Code: status, Message: appErr.Message, Error: appErr.Code})
}

func write(w http.ResponseWriter, r *http.Request, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(r.Context()).WithError(err).Warn("respond: encode payload failed")
	}
}
