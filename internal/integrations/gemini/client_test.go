package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// generateURL helper
// ---------------------------------------------------------------------------

func TestGenerateURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://generativelanguage.googleapis.com", "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"},
		{"https://generativelanguage.googleapis.com/", "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"},
		{"http://localhost:8080/v1beta", "http://localhost:8080/v1beta/models/gemini-pro:generateContent"},
		{"", "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, generateURL(tc.base, "gemini-pro"), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient / key resolution
// ---------------------------------------------------------------------------

type fakeKeys struct {
	key   string
	err   error
	calls int
}

func (f *fakeKeys) APIKey(_ context.Context) (string, error) {
	f.calls++
	return f.key, f.err
}

func TestNewClient_NilKeySource(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(StaticKey("k"))
	require.NoError(t, err)
	require.Equal(t, defaultBaseURL, c.baseURL)
	require.NotNil(t, c.httpClient)
}

func TestStaticKey_Empty(t *testing.T) {
	_, err := StaticKey("  ").APIKey(context.Background())
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestResolveAPIKey_CachedAfterSuccess(t *testing.T) {
	keys := &fakeKeys{key: "k-1"}
	c, err := NewClient(keys)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		key, err := c.resolveAPIKey(context.Background())
		require.NoError(t, err)
		require.Equal(t, "k-1", key)
	}
	require.Equal(t, 1, keys.calls)
}

func TestResolveAPIKey_ErrorIsRetried(t *testing.T) {
	keys := &fakeKeys{err: errors.New("ssm unavailable")}
	c, err := NewClient(keys)
	require.NoError(t, err)

	_, err = c.resolveAPIKey(context.Background())
	require.ErrorContains(t, err, "ssm unavailable")

	keys.err = nil
	keys.key = "k-2"
	key, err := c.resolveAPIKey(context.Background())
	require.NoError(t, err)
	require.Equal(t, "k-2", key)
	require.Equal(t, 2, keys.calls)
}

func TestResolveAPIKey_BlankKey(t *testing.T) {
	c, err := NewClient(&fakeKeys{key: " "})
	require.NoError(t, err)
	_, err = c.resolveAPIKey(context.Background())
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

// ---------------------------------------------------------------------------
// FirstText
// ---------------------------------------------------------------------------

func TestFirstText(t *testing.T) {
	cases := []struct {
		name   string
		resp   *GenerateResponse
		want   string
		wantOK bool
	}{
		{"nil response", nil, "", false},
		{"no candidates", &GenerateResponse{}, "", false},
		{"nil content", &GenerateResponse{Candidates: []Candidate{{}}}, "", false},
		{"no parts", &GenerateResponse{Candidates: []Candidate{{Content: &Content{}}}}, "", false},
		{"empty text", &GenerateResponse{Candidates: []Candidate{{Content: &Content{Parts: []Part{{}}}}}}, "", false},
		{"first part", &GenerateResponse{Candidates: []Candidate{
			{Content: &Content{Parts: []Part{{Text: "one"}, {Text: "two"}}}},
			{Content: &Content{Parts: []Part{{Text: "other"}}}},
		}}, "one", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.resp.FirstText()
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

// ---------------------------------------------------------------------------
// Client.Generate
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(
		StaticKey("key-test"),
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func TestClient_Generate_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1beta/models/gemini-mock:generateContent", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "key-test", r.Header.Get("x-goog-api-key"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var body generateRequest
		require.NoError(t, json.Unmarshal(raw, &body))
		require.Len(t, body.Contents, 1)
		require.Equal(t, "user", body.Contents[0].Role)
		require.Equal(t, "hello there", body.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "Hello from mock"}]},
				"finishReason": "STOP"
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Generate(context.Background(), "gemini-mock", "hello there")
	require.NoError(t, err)
	text, ok := resp.FirstText()
	require.True(t, ok)
	require.Equal(t, "Hello from mock", text)
}

func TestClient_Generate_MissingKeyFailsPerCall(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c, err := NewClient(StaticKey(""), WithBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), "gemini-mock", "hi")
	require.ErrorIs(t, err, ErrMissingAPIKey)
	require.Zero(t, hits)
}

func TestClient_Generate_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Generate(context.Background(), "gemini-mock", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status 400")

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusBadRequest, statusErr.HTTPStatusCode())
}

func TestClient_Generate_429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Generate(context.Background(), "gemini-mock", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestClient_Generate_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Generate(context.Background(), "gemini-mock", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestClient_Generate_NoCandidatesIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Generate(context.Background(), "gemini-mock", "hi")
	require.NoError(t, err)
	_, ok := resp.FirstText()
	require.False(t, ok)
}

func TestClient_Generate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.Generate(context.Background(), "gemini-mock", "hi")
	require.Error(t, err)
}

func TestClient_Generate_NetworkError(t *testing.T) {
	c, err := NewClient(StaticKey("key-test"), WithBaseURL("http://127.0.0.1:1"), WithTimeout(100*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), "gemini-mock", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_Generate_EmptyModel(t *testing.T) {
	c, err := NewClient(StaticKey("key-test"))
	require.NoError(t, err)
	_, err = c.Generate(context.Background(), " ", "hi")
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}
