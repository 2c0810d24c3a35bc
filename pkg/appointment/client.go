package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/klokku/klokku-scheduler/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	fallbackListMessage   = "Failed to fetch events"
	fallbackCreateMessage = "Failed to create appointment"
	fallbackUpdateMessage = "Failed to update appointment"
	fallbackDeleteMessage = "Failed to delete appointment"
)

// APIError is a non-2xx answer from the appointment backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// TokenProvider supplies the bearer token of the current session, if any.
type TokenProvider interface {
	Token(ctx context.Context) (string, bool)
}

type Client interface {
	List(ctx context.Context) ([]Appointment, error)                      // GET /appointment
	Create(ctx context.Context, req Request) (*Appointment, error)        // POST /appointment
	Update(ctx context.Context, id ID, req Request) (*Appointment, error) // PUT /appointment/{id}
	Delete(ctx context.Context, id ID) error                              // DELETE /appointment/{id}
}

type ClientImpl struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
	limiter    *rate.Limiter
}

func NewClient(cfg config.API, tokens TokenProvider) *ClientImpl {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &ClientImpl{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// List retrieves every appointment visible to the session.
func (c *ClientImpl) List(ctx context.Context) ([]Appointment, error) {
	data, err := c.do(ctx, http.MethodGet, "/appointment", nil, fallbackListMessage)
	if err != nil {
		return nil, err
	}

	appointments, err := ParseRecords(data)
	if err != nil {
		log.Errorf("Failed to decode appointment list: %v", err)
		return nil, err
	}
	log.Debugf("Fetched %d appointments", len(appointments))
	return appointments, nil
}

// Create submits a new appointment and returns the record the backend stored.
func (c *ClientImpl) Create(ctx context.Context, req Request) (*Appointment, error) {
	data, err := c.do(ctx, http.MethodPost, "/appointment", req, fallbackCreateMessage)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data, ParseRecord)
}

// Update replaces the appointment with the given id.
func (c *ClientImpl) Update(ctx context.Context, id ID, req Request) (*Appointment, error) {
	data, err := c.do(ctx, http.MethodPut, "/appointment/"+url.PathEscape(id.String()), req, fallbackUpdateMessage)
	if err != nil {
		return nil, err
	}
	return decodeRecord(data, ParseUpdatedRecord)
}

// Delete removes the appointment with the given id. The response body is ignored.
func (c *ClientImpl) Delete(ctx context.Context, id ID) error {
	_, err := c.do(ctx, http.MethodDelete, "/appointment/"+url.PathEscape(id.String()), nil, fallbackDeleteMessage)
	return err
}

func decodeRecord(data []byte, parse func([]byte) (Appointment, error)) (*Appointment, error) {
	a, err := parse(data)
	if err != nil {
		log.Errorf("Failed to decode appointment: %v", err)
		return nil, err
	}
	return &a, nil
}

func (c *ClientImpl) do(ctx context.Context, method string, path string, body any, fallbackMessage string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("request not sent: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			log.Errorf("Failed to encode request body: %v", err)
			return nil, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		log.Errorf("Failed to create request: %v", err)
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(ctx, req)

	log.Tracef("%s %s", method, req.URL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("Failed to execute request: %v", err)
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("Failed to read response: %v", err)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := newAPIError(resp.StatusCode, data, fallbackMessage)
		log.Errorf("Appointment API returned status %d: %s", resp.StatusCode, err.Message)
		return nil, err
	}
	return data, nil
}

// authorize attaches the session token. A missing token is not an error; the
// backend decides whether the request is allowed.
func (c *ClientImpl) authorize(ctx context.Context, req *http.Request) {
	if c.tokens == nil {
		return
	}
	token, ok := c.tokens.Token(ctx)
	if !ok {
		log.Debug("No session token available, sending request without authorization")
		return
	}
	(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
}

func newAPIError(status int, body []byte, fallbackMessage string) *APIError {
	var response struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &response); err != nil || response.Message == "" {
		return &APIError{Status: status, Message: fallbackMessage}
	}
	return &APIError{Status: status, Message: response.Message}
}
