// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
)

func TestRequestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		requestID  string
		status     int
		wantStatus int
	}{
		{name: "readiness probe", path: constants.ReadinessPath, status: http.StatusServiceUnavailable, wantStatus: http.StatusServiceUnavailable},
		{name: "liveness probe", path: constants.LivenessPath, wantStatus: http.StatusOK},
		{name: "keeps caller request id", path: "/other", requestID: "req-1", status: http.StatusNotFound, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				_, _ = w.Write([]byte("OK\n"))
			}))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.requestID != "" {
				req.Header.Set(constants.RequestIDHeader, tt.requestID)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.NotEmpty(t, rec.Header().Get(constants.RequestIDHeader))
			if tt.requestID != "" {
				assert.Equal(t, tt.requestID, rec.Header().Get(constants.RequestIDHeader))
			}
		})
	}
}
