package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKakaoServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		_, _ = w.Write([]byte(`{"access_token":"kakao-access","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer kakao-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":4242,"properties":{"nickname":"neo","profile_image":"https://img.example/neo.png"}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestProvider(srv *httptest.Server) *KakaoProvider {
	return NewKakaoProvider(KakaoConfig{
		ClientID:    "client-id",
		RedirectURL: "http://localhost:4000/auth/kakao/callback",
		TokenURL:    srv.URL + "/oauth/token",
		UserInfoURL: srv.URL + "/v2/user/me",
		HTTPClient:  srv.Client(),
	})
}

func TestKakaoProvider_AuthCodeURL(t *testing.T) {
	p := NewKakaoProvider(KakaoConfig{ClientID: "client-id", RedirectURL: "http://localhost/cb"})

	u, err := url.Parse(p.AuthCodeURL("xyz"))
	require.NoError(t, err)
	assert.Equal(t, "kauth.kakao.com", u.Host)
	assert.Equal(t, "client-id", u.Query().Get("client_id"))
	assert.Equal(t, "http://localhost/cb", u.Query().Get("redirect_uri"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, "xyz", u.Query().Get("state"))
}

func TestKakaoProvider_Exchange(t *testing.T) {
	srv := newKakaoServer(t)
	p := newTestProvider(srv)

	info, err := p.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "kakao", info.Provider)
	assert.Equal(t, "4242", info.ProviderUserID)
	assert.Equal(t, "neo", info.Nickname)
	assert.Equal(t, "https://img.example/neo.png", info.ProfileImage)
}

func TestKakaoProvider_ExchangeRejectedCode(t *testing.T) {
	srv := newKakaoServer(t)
	p := newTestProvider(srv)

	_, err := p.Exchange(context.Background(), "bad-code")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}
