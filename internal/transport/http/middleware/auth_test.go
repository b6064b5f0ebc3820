package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, secret, sub string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(expiresIn).Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func Test_Auth_BindsUserID(t *testing.T) {
	req := require.New(t)
	userID := uuid.New()

	var got uuid.UUID
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	r := httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil)
	r.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, userID.String(), time.Hour))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	req.Equal(http.StatusNoContent, w.Code)
	req.Equal(userID, got)
}

func Test_Auth_RejectsWithErrorEnvelope(t *testing.T) {
	req := require.New(t)
	handler := Auth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for a rejected request")
	}))

	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic abc",
		"wrong secret":   "Bearer " + signedToken(t, "other-secret", uuid.NewString(), time.Hour),
		"expired":        "Bearer " + signedToken(t, testSecret, uuid.NewString(), -time.Hour),
		"garbage sub":    "Bearer " + signedToken(t, testSecret, "not-a-uuid", time.Hour),
	}
	for name, header := range cases {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		req.Equal(http.StatusUnauthorized, w.Code, name)
		req.Equal("application/json", w.Header().Get("Content-Type"), name)

		// Same envelope the handlers write.
		var body struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		req.NoError(json.Unmarshal(w.Body.Bytes(), &body), name)
		req.Equal("UNAUTHORIZED", body.Error.Code, name)
		req.NotEmpty(body.Error.Message, name)
	}
}
