package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoogleStub(t *testing.T, userInfoStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "access-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if userInfoStatus != http.StatusOK {
			w.WriteHeader(userInfoStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sub":     "google-1",
			"email":   "learner@example.com",
			"name":    "Learner",
			"picture": "https://img.example.com/a.png",
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *GoogleProvider {
	return NewGoogleProvider(GoogleConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3001/google/callback",
		AuthURL:      srv.URL + "/auth",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
	})
}

func TestGoogleProviderLoginURL(t *testing.T) {
	srv := newGoogleStub(t, http.StatusOK)
	provider := newTestProvider(srv)

	raw := provider.LoginURL("state-abc")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "state-abc", u.Query().Get("state"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Contains(t, u.Query().Get("scope"), "email")
}

func TestGoogleProviderExchange(t *testing.T) {
	srv := newGoogleStub(t, http.StatusOK)
	provider := newTestProvider(srv)

	profile, err := provider.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "google-1", profile.ProviderUserID)
	assert.Equal(t, "learner@example.com", profile.Email)
	assert.Equal(t, "https://img.example.com/a.png", profile.Avatar)
	assert.Equal(t, "google", profile.Provider)
}

func TestGoogleProviderExchangeBadCode(t *testing.T) {
	srv := newGoogleStub(t, http.StatusOK)
	provider := newTestProvider(srv)

	_, err := provider.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)

	_, err = provider.Exchange(context.Background(), "")
	assert.Error(t, err)
}

func TestGoogleProviderUserInfoFailure(t *testing.T) {
	srv := newGoogleStub(t, http.StatusInternalServerError)
	provider := newTestProvider(srv)

	_, err := provider.Exchange(context.Background(), "good-code")
	assert.Error(t, err)
}
