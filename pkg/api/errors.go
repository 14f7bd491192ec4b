package api

import (
	"errors"
	"net/http"

	"github.com/pydist/pydist/pkg/auth"
	"github.com/pydist/pydist/pkg/db"
	"github.com/pydist/pydist/pkg/httputil"
	"github.com/pydist/pydist/pkg/index"
	"github.com/pydist/pydist/pkg/logging"
)

// writeError maps domain errors onto the status codes and plain-text bodies
// legacy distutils clients expect. Anything unrecognized is a 500 with a
// generic body; the cause goes to the log, not the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if httputil.IsRequestCanceled(r) {
		// client is gone, there is nobody to answer
		logging.FromContext(r.Context()).WithError(err).Debug("request canceled by client")
		return
	}
	var notAuthorized *index.NotAuthorizedError
	switch {
	case errors.As(err, &notAuthorized):
		http.Error(w, notAuthorized.Reason, http.StatusForbidden)
	case errors.Is(err, index.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, auth.ErrUserNotFound):
		http.Error(w, "unknown user", http.StatusNotFound)
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, db.ErrAlreadyExists):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logging.FromContext(r.Context()).WithError(err).Error("request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
