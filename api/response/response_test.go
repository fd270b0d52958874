package response

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"convert-gateway/service"
	"convert-gateway/storage/postgres"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"missing file", service.ErrMissingFile, http.StatusBadRequest, MsgNoFilePart},
		{"wrapped missing file", fmt.Errorf("%w: not multipart", service.ErrMissingFile), http.StatusBadRequest, MsgNoFilePart},
		{"empty filename", service.ErrNoSelectedFile, http.StatusBadRequest, MsgNoSelectedFile},
		{"bad extension", service.ErrUnsupportedType, http.StatusBadRequest, MsgTypeNotAllowed},
		{"too large", service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, MsgFileTooLarge},
		{"staging", service.ErrStaging, http.StatusInternalServerError, MsgStagingFailed},
		{"timeout", service.ErrConversionTimeout, http.StatusInternalServerError, MsgTimedOut},
		{"conversion", service.ErrConversion, http.StatusInternalServerError, MsgConversionFailed},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, MsgConversionFailed},
		{"not found", postgres.ErrNotFound, http.StatusNotFound, MsgNotFound},
		{"history disabled", service.ErrHistoryDisabled, http.StatusNotFound, MsgHistoryDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := StatusFor(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMsg, msg)
		})
	}
}

func TestError_ExposeOnlyAffectsServerErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(err error, expose bool) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		Error(c, err, expose)
		return w
	}

	convErr := fmt.Errorf("%w: exit status 1", service.ErrConversion)

	w := run(convErr, true)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"conversion failed: exit status 1"}`, w.Body.String())

	w = run(convErr, false)
	assert.JSONEq(t, `{"error":"Conversion failed"}`, w.Body.String())

	w = run(service.ErrUnsupportedType, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"File type not allowed"}`, w.Body.String())
}
