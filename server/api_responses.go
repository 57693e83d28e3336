package hpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"github.com/hostpulse/hostpulse/server/api"
	errors2 "github.com/hostpulse/hostpulse/server/api/errors"
	"github.com/hostpulse/hostpulse/share/logger"
)

var (
	// this will be used by default for tests, but otherwise should be overridden during server init
	errLog = logger.NewLogger("api-error-response", logger.LogOutput{File: os.Stdout}, logger.LogLevelDebug)
)

func SetAPIResponsesErrorLog(l *logger.Logger) {
	errLog = l
}

func writeErrorPayloadLog(errPayload api.ErrorPayload) {
	if errLog != nil && errLog.Level == logger.LogLevelDebug {
		errLog.Debugf("payload: %+v", errPayload)
	}
}

func (al *APIListener) writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	b, err := json.Marshal(response)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(b); err != nil {
		al.Errorf("error writing response: %s", err)
	}
}

func (al *APIListener) jsonErrorResponse(w http.ResponseWriter, statusCode int, err error) {
	errPayload := api.NewErrAPIPayloadFromError(err, "", "")
	writeErrorPayloadLog(errPayload)
	al.writeJSONResponse(w, statusCode, errPayload)
}

// jsonError resolves the response status from the error itself; anything that
// is not an APIError reads as an internal error.
func (al *APIListener) jsonError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errCode := ""
	var apiErr errors2.APIError
	var apiErrs errors2.APIErrors
	switch {
	case errors.As(err, &apiErr):
		statusCode = apiErr.HTTPStatus
		errCode = apiErr.ErrCode
	case errors.As(err, &apiErrs):
		if len(apiErrs) > 0 {
			statusCode = apiErrs[0].HTTPStatus
			errCode = apiErrs[0].ErrCode
		}
	}

	errPayload := api.NewErrAPIPayloadFromError(err, errCode, "")
	writeErrorPayloadLog(errPayload)
	al.writeJSONResponse(w, statusCode, errPayload)
}
