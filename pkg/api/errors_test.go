package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pydist/pydist/pkg/index"
	"github.com/stretchr/testify/require"
)

func TestWriteError_ClientCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := httptest.NewRequest(http.MethodPost, "/alice/pypi", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	writeError(w, r, errors.New("boom"))

	// the client is gone, no response is written
	require.Equal(t, http.StatusOK, w.Code)
	require.Zero(t, w.Body.Len())
}

func TestWriteError_ValidationBody(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/alice/pypi", nil)
	w := httptest.NewRecorder()

	writeError(w, r, &index.ValidationError{Message: "No package name specified"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "No package name specified\n", w.Body.String())
}
