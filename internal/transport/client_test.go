package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "github.com/roomsync/roomsync-client/errors"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.IsTest = true
	os.Exit(m.Run())
}

type fakeCredentials struct {
	mu      sync.Mutex
	token   string
	cleared int
}

func (f *fakeCredentials) Token(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeCredentials) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.cleared++
	return nil
}

type property struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewClient(t *testing.T) {
	client := NewClient("https://api.example.com/api/")

	assert.Equal(t, "https://api.example.com/api", client.BaseURL())
	assert.Equal(t, 15*time.Second, client.httpClient.Timeout)

	custom := &http.Client{Timeout: 3 * time.Second}
	client = NewClient("https://api.example.com", WithHTTPClient(custom))
	assert.Same(t, custom, client.httpClient)

	client = NewClient("https://api.example.com", WithTimeout(2*time.Second))
	assert.Equal(t, 2*time.Second, client.httpClient.Timeout)
}

func TestDo_SuccessWithBearer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/properties", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Maple House", body["name"])

		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": "Property created",
			"data":    map[string]string{"_id": "p1", "name": "Maple House"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/api", WithCredentials(&fakeCredentials{token: "secret-token"}))

	env, err := Do[property](context.Background(), client, http.MethodPost, "/properties", map[string]string{"name": "Maple House"})
	require.NoError(t, err)
	assert.True(t, env.Success)
	assert.Equal(t, "Property created", env.Message)
	assert.Equal(t, "p1", env.Data.ID)
}

func TestDo_AnonymousWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []property{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithCredentials(&fakeCredentials{}))
	_, err := Do[[]property](context.Background(), client, http.MethodGet, "property-ads", nil)
	require.NoError(t, err)
}

func TestDo_UnauthorizedClearsCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Token expired"})
	}))
	defer server.Close()

	creds := &fakeCredentials{token: "stale"}
	client := NewClient(server.URL, WithCredentials(creds))

	for _, path := range []string{"/groups/my", "/splits/to-pay", "/notifications"} {
		_, err := Do[json.RawMessage](context.Background(), client, http.MethodGet, path, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsAuth(err))
		assert.Equal(t, "Token expired", apperrors.Message(err))
		assert.Equal(t, "", creds.Token(context.Background()))
	}
	assert.Equal(t, 3, creds.cleared)
}

func TestDo_ValidationErrors(t *testing.T) {
	tests := []struct {
		name           string
		body           map[string]any
		wantValidation bool
		wantMessage    string
	}{
		{
			name: "structured field errors",
			body: map[string]any{
				"success": false,
				"message": "Validation failed",
				"errors":  []map[string]string{{"field": "email", "message": "Email is already registered"}},
			},
			wantValidation: true,
			wantMessage:    "Email is already registered",
		},
		{
			name:           "plain 400",
			body:           map[string]any{"success": false, "message": "Ad is no longer active"},
			wantValidation: false,
			wantMessage:    "Ad is no longer active",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusBadRequest, tt.body)
			}))
			defer server.Close()

			creds := &fakeCredentials{token: "tok"}
			client := NewClient(server.URL, WithCredentials(creds))
			_, err := Do[json.RawMessage](context.Background(), client, http.MethodPost, "/auth/register", map[string]string{})
			require.Error(t, err)

			assert.Equal(t, tt.wantValidation, apperrors.IsValidation(err))
			assert.Equal(t, tt.wantMessage, apperrors.Message(err))
			assert.Equal(t, "tok", creds.Token(context.Background()), "a 400 must not purge credentials")

			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			if tt.wantValidation {
				assert.Equal(t, apperrors.ValidationError, appErr.Type)
				assert.Len(t, appErr.Fields, 1)
			} else {
				assert.Equal(t, apperrors.DomainError, appErr.Type)
			}
		})
	}
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	}))
	defer server.Close()

	_, err := Do[json.RawMessage](context.Background(), NewClient(server.URL), http.MethodGet, "/groups/my", nil)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.DomainError, appErr.Type)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	assert.Equal(t, "Bad Gateway", appErr.Message)
}

func TestDo_SuccessFalseIsDomainError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Already a member"})
	}))
	defer server.Close()

	_, err := Do[json.RawMessage](context.Background(), NewClient(server.URL), http.MethodPost, "/groups/g1/join", nil)
	require.Error(t, err)
	assert.Equal(t, "Already a member", apperrors.Message(err))
	assert.False(t, apperrors.IsValidation(err))
}

func TestDo_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := Do[json.RawMessage](context.Background(), NewClient(addr), http.MethodGet, "/groups/my", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, "", apperrors.Message(err))
}

func TestDo_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithTimeout(20*time.Millisecond))
	_, err := Do[json.RawMessage](context.Background(), client, http.MethodGet, "/tasks/my", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
}

func TestDoQuery_PassesParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "40", r.URL.Query().Get("offset"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": []types.Notification{}})
	}))
	defer server.Close()

	q := url.Values{}
	q.Set("limit", "20")
	q.Set("offset", "40")
	_, err := DoQuery[[]types.Notification](context.Background(), NewClient(server.URL), http.MethodGet, "/notifications", q, nil)
	require.NoError(t, err)
}

func TestUpload(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "house.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]string{"_id": "g1"}})
	}))
	defer server.Close()

	env, err := Upload[property](context.Background(), NewClient(server.URL), http.MethodPost, "/groups/g1/image", "image", "house.png", png)
	require.NoError(t, err)
	assert.Equal(t, "g1", env.Data.ID)
}

func TestUpload_RejectsNonImage(t *testing.T) {
	_, err := Upload[property](context.Background(), NewClient("http://unused"), http.MethodPost, "/groups/g1/image", "image", "notes.txt", []byte("plain text"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported upload type")
}
