package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/eventledger/internal/auth"
)

const adminSecret = "admin-secret"

func TestRequireAdmin(t *testing.T) {
	admin, err := auth.GenerateToken("ops-alice", auth.RoleAdmin, adminSecret, time.Hour)
	require.NoError(t, err)
	viewer, err := auth.GenerateToken("ops-bob", "viewer", adminSecret, time.Hour)
	require.NoError(t, err)
	forged, err := auth.GenerateToken("ops-eve", auth.RoleAdmin, "other-secret", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		status   int
		code     string
		operator string
	}{
		{"admin token", "Bearer " + admin, http.StatusOK, "", "ops-alice"},
		{"missing header", "", http.StatusUnauthorized, "MISSING_TOKEN", ""},
		{"not bearer", "Basic abc", http.StatusUnauthorized, "INVALID_TOKEN", ""},
		{"wrong secret", "Bearer " + forged, http.StatusUnauthorized, "INVALID_TOKEN", ""},
		{"wrong role", "Bearer " + viewer, http.StatusForbidden, "FORBIDDEN", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var operator string
			h := RequireAdmin(adminSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				operator, _ = auth.OperatorFromContext(r.Context())
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/projections/rebuild", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.operator, operator)
			if tt.code != "" {
				var body struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.code, body.Error.Code)
			}
		})
	}
}
