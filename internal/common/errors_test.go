package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInvalidDataMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("generate: %w", InvalidDataf("add-on %s is not valid", "Gift Wrap"))

	require.True(t, errors.Is(err, ErrInvalidData))
	require.False(t, errors.Is(err, ErrNotFound))
	require.True(t, IsAppError(err))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "add-on Gift Wrap is not valid", appErr.Message)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	err := NotFound("variant", "v1")
	require.True(t, errors.Is(err, ErrNotFound))
	require.Equal(t, "variant v1 not found", err.Message)
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid data", err: InvalidData(`"title" is required`), status: http.StatusBadRequest, code: "INVALID_DATA"},
		{name: "wrapped not found", err: fmt.Errorf("retrieve region: %w", NotFound("region", "r1")), status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "plain error", err: errors.New("connection reset"), status: http.StatusInternalServerError, code: "INTERNAL"},
		{name: "bare app error", err: &AppError{}, status: http.StatusInternalServerError, code: "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tc.err)
			require.Equal(t, tc.status, rr.Code)
			require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body struct {
				Error ErrorBody `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			require.Equal(t, tc.code, body.Error.Code)
			require.NotEmpty(t, body.Error.Message)
		})
	}
}
