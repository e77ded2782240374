package challenge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silentoaq/zuvi-auth/core"
)

func TestClient_RequestChallenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/message", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pk1", req["publicKey"])

		json.NewEncoder(w).Encode(core.Challenge{
			Message:      `{"action":"Connect to Zuvi"}`,
			Instructions: "Please sign this message with your wallet",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	ch, err := c.RequestChallenge(context.Background(), "pk1")

	require.NoError(t, err)
	assert.Contains(t, ch.Message, "Connect to Zuvi")
	assert.NotEmpty(t, ch.Instructions)
}

func TestClient_LoginSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pk1", req["publicKey"])
		assert.Equal(t, "did:solana:pk1", req["did"])
		assert.Equal(t, "sig", req["signature"])
		assert.Equal(t, "msg", req["message"])

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "token1",
			"user":    core.User{PublicKey: "pk1"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Login(context.Background(), "pk1", "did:solana:pk1", "sig", "msg")

	require.NoError(t, err)
	assert.Equal(t, "token1", res.Token)
	assert.Equal(t, "pk1", res.User.PublicKey)
}

func TestClient_LoginUnsuccessfulBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Login(context.Background(), "pk1", "", "sig", "msg")

	require.ErrorIs(t, err, core.ErrAuthRejected)
}

func TestClient_UnauthorizedMapsToAuthRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid signature"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Login(context.Background(), "pk1", "", "sig", "msg")

	require.ErrorIs(t, err, core.ErrAuthRejected)
	assert.Contains(t, err.Error(), "Invalid signature")
}

func TestClient_ServerErrorMapsToService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.RequestChallenge(context.Background(), "pk1")

	require.ErrorIs(t, err, core.ErrService)
	// No parseable error body, so the message falls back to the status line.
	assert.Contains(t, err.Error(), "HTTP 500: Internal Server Error")
}

func TestClient_TransportFailureMapsToNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL)
	_, err := c.RequestChallenge(context.Background(), "pk1")

	require.ErrorIs(t, err, core.ErrNetwork)
}

func TestClient_VerifySendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/auth/verify", r.URL.Path)
		assert.Equal(t, "Bearer token1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(core.VerifyResult{
			Valid: true,
			User:  &core.User{PublicKey: "pk1"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	res, err := c.Verify(context.Background(), "token1")

	require.NoError(t, err)
	assert.True(t, res.Valid)
	require.NotNil(t, res.User)
	assert.Equal(t, "pk1", res.User.PublicKey)
}

func TestClient_RefreshCredentialStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/credentials", r.URL.Path)
		assert.Equal(t, "Bearer token1", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(map[string]any{
			"credentialStatus": core.CredentialStatus{
				Twfido: &core.CredentialFact{Exists: true},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	status, err := c.RefreshCredentialStatus(context.Background(), "token1")

	require.NoError(t, err)
	require.NotNil(t, status.Twfido)
	assert.True(t, status.Twfido.Exists)
}

func TestClient_Logout(t *testing.T) {
	var called bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/logout", r.URL.Path)
		assert.Equal(t, "Bearer token1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.NoError(t, c.Logout(context.Background(), "token1"))
	assert.True(t, called)
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/message", r.URL.Path)
		json.NewEncoder(w).Encode(core.Challenge{Message: "m"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	_, err := c.RequestChallenge(context.Background(), "pk1")
	require.NoError(t, err)
}
