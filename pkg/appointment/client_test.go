package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klokku/klokku-scheduler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
}

func (s staticTokens) Token(ctx context.Context) (string, bool) {
	return s.token, s.token != ""
}

type recordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

func setupClientTest(t *testing.T, token string, status int, response string) (*ClientImpl, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, recordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)

	client := NewClient(config.API{BaseURL: server.URL + "/auth/api"}, staticTokens{token: token})
	return client, &requests
}

func TestClient_List(t *testing.T) {
	client, requests := setupClientTest(t, "secret-token", http.StatusOK, `[
		{"id":1,"title":"a","start":"2024-01-01T10:00:00Z","end":"2024-01-01T11:00:00Z"},
		{"id":"g2","summary":"b","start":{"dateTime":"2024-01-02T10:00:00Z"},"end":{"dateTime":"2024-01-02T10:45:00Z"}}
	]`)

	appointments, err := client.List(context.Background())

	require.NoError(t, err)
	require.Len(t, appointments, 2)
	assert.Equal(t, ID("1"), appointments[0].ID)
	assert.Equal(t, ID("g2"), appointments[1].ID)
	assert.Equal(t, 45, appointments[1].DurationMinutes())

	require.Len(t, *requests, 1)
	req := (*requests)[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/auth/api/appointment", req.Path)
	assert.Equal(t, "Bearer secret-token", req.Authorization)
}

func TestClient_List_WithoutTokenStillSendsRequest(t *testing.T) {
	client, requests := setupClientTest(t, "", http.StatusUnauthorized, `{"message":"Not authorized, no token"}`)

	_, err := client.List(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Not authorized, no token", err.Error())
	require.Len(t, *requests, 1)
	assert.Empty(t, (*requests)[0].Authorization)
}

func TestClient_List_FallbackMessage(t *testing.T) {
	client, _ := setupClientTest(t, "t", http.StatusInternalServerError, `<html>oops</html>`)

	_, err := client.List(context.Background())

	assert.EqualError(t, err, "Failed to fetch events")
}

func TestClient_List_MalformedBody(t *testing.T) {
	client, _ := setupClientTest(t, "t", http.StatusOK, `{"not":"a list"}`)

	_, err := client.List(context.Background())

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestClient_Create(t *testing.T) {
	client, requests := setupClientTest(t, "t", http.StatusCreated,
		`{"id":5,"title":"X","start":"2024-01-01T10:00:00Z","end":"2024-01-01T10:30:00.000Z","meetLink":"https://meet/x","attendees":[{"email":"a@b.com"}]}`)
	req := Request{Title: "X", Start: "2024-01-01T10:00:00Z", End: "2024-01-01T10:30:00.000Z", Attendees: []string{"a@b.com"}}

	created, err := client.Create(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, ID("5"), created.ID)
	assert.Equal(t, "https://meet/x", created.MeetLink)

	sent := (*requests)[0]
	assert.Equal(t, http.MethodPost, sent.Method)
	assert.Equal(t, "/auth/api/appointment", sent.Path)
	assert.Equal(t, "application/json", sent.ContentType)
	var body Request
	require.NoError(t, json.Unmarshal(sent.Body, &body))
	assert.Equal(t, req, body)
}

func TestClient_Create_ServerMessage(t *testing.T) {
	client, _ := setupClientTest(t, "t", http.StatusConflict, `{"message":"time conflicts with existing appointment"}`)

	_, err := client.Create(context.Background(), Request{})

	assert.EqualError(t, err, "time conflicts with existing appointment")
}

func TestClient_Update(t *testing.T) {
	client, requests := setupClientTest(t, "t", http.StatusOK,
		`{"id":"a b","title":"Y","start":{"dateTime":"2024-01-01T10:00:00Z"},"end":{"dateTime":"2024-01-01T11:00:00Z"}}`)

	updated, err := client.Update(context.Background(), "a b", Request{Title: "Y"})

	require.NoError(t, err)
	assert.Equal(t, "Y", updated.Title)
	assert.Equal(t, http.MethodPut, (*requests)[0].Method)
	assert.Equal(t, "/auth/api/appointment/a b", (*requests)[0].Path)
}

func TestClient_Update_ResponseWithoutID(t *testing.T) {
	client, _ := setupClientTest(t, "t", http.StatusOK,
		`{"summary":"old","title":"Y","start":"2024-01-01T10:00:00Z","end":"2024-01-01T11:00:00Z"}`)

	updated, err := client.Update(context.Background(), "7", Request{Title: "Y"})

	require.NoError(t, err)
	assert.Empty(t, updated.ID)
	assert.Equal(t, "Y", updated.Title)
}

func TestClient_List_SkipsUnreadableRecord(t *testing.T) {
	client, _ := setupClientTest(t, "t", http.StatusOK, `[
		{"id":1,"title":"a","start":"2024-01-01T10:00:00Z","end":"2024-01-01T10:30:00Z"},
		{"id":2,"title":"b","start":"2024-01-01T11:00:00Z","end":"2024-01-01T11:00:00Z"},
		{"id":3,"title":"broken","start":"someday"}
	]`)

	list, err := client.List(context.Background())

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ID("2"), list[1].ID)
}

func TestClient_Delete(t *testing.T) {
	client, requests := setupClientTest(t, "t", http.StatusNoContent, ``)

	err := client.Delete(context.Background(), "5")

	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, (*requests)[0].Method)
	assert.Equal(t, "/auth/api/appointment/5", (*requests)[0].Path)
	assert.Empty(t, (*requests)[0].ContentType)
}

func TestClient_Delete_Failure(t *testing.T) {
	client, _ := setupClientTest(t, "t", http.StatusNotFound, ``)

	err := client.Delete(context.Background(), "5")

	assert.EqualError(t, err, "Failed to delete appointment")
}

func TestClient_TransportError(t *testing.T) {
	client := NewClient(config.API{BaseURL: "http://127.0.0.1:1"}, nil)

	_, err := client.List(context.Background())

	assert.Error(t, err)
}

func TestClient_CancelledContext(t *testing.T) {
	client, requests := setupClientTest(t, "t", http.StatusOK, `[]`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.List(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *requests)
}
