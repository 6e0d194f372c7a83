package seedkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is an authenticated HTTP client for the scoring API. A zero
// token means unauthenticated; Login fills it in.
type Client struct {
	base   string
	client *http.Client
	token  string
}

// newClient creates a client for the given base URL.
func newClient(base string, timeout time.Duration) *Client {
	return &Client{
		base: base,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// apiError is the service's error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// do performs a JSON request and decodes the response into out when the
// status matches want. Any other status is turned into an error carrying
// the service's error envelope.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, want int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		var envelope apiError
		if err := json.Unmarshal(data, &envelope); err == nil && envelope.Message != "" {
			return fmt.Errorf("%s %s: HTTP %d (%s): %s", method, path, resp.StatusCode, envelope.Code, envelope.Message)
		}
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// Health checks the /healthz endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK)
}

// Login exchanges an access key for a session token and keeps the token
// on the client. The resolved role name is returned.
func (c *Client) Login(ctx context.Context, key string) (string, error) {
	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
		Name  string `json:"name"`
	}
	body := map[string]string{"access_key": key}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &resp, http.StatusOK); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Role, nil
}

// CreateEvent registers a new event.
func (c *Client) CreateEvent(ctx context.Context, name string) (event, error) {
	var ev event
	body := map[string]string{"name": name}
	err := c.do(ctx, http.MethodPost, "/api/events", body, &ev, http.StatusCreated)
	return ev, err
}

// AddCriterion attaches a weighted criterion to an event.
func (c *Client) AddCriterion(ctx context.Context, eventID, name string, weight, maxScore float64) (criterion, error) {
	var cr criterion
	body := map[string]interface{}{
		"event_id":  eventID,
		"name":      name,
		"weight":    weight,
		"max_score": maxScore,
	}
	err := c.do(ctx, http.MethodPost, "/api/criteria", body, &cr, http.StatusCreated)
	return cr, err
}

// ImportStudents batch-imports a roster.
func (c *Client) ImportStudents(ctx context.Context, roster []student) ([]student, error) {
	payload := make([]map[string]string, 0, len(roster))
	for _, s := range roster {
		payload = append(payload, map[string]string{
			"name":     s.Name,
			"class":    s.Class,
			"nis":      s.NIS,
			"event_id": s.EventID,
		})
	}

	var created []student
	body := map[string]interface{}{"students": payload}
	err := c.do(ctx, http.MethodPost, "/api/students", body, &created, http.StatusCreated)
	return created, err
}

// CreateKey registers an access key with the given role label.
func (c *Client) CreateKey(ctx context.Context, key, name, role string) (accessKey, error) {
	var ak accessKey
	body := map[string]string{"key": key, "name": name, "role": role}
	err := c.do(ctx, http.MethodPost, "/api/keys", body, &ak, http.StatusCreated)
	return ak, err
}

// UpsertScores writes the calling judge's scores for a student.
func (c *Client) UpsertScores(ctx context.Context, studentID string, scores map[string]float64) error {
	body := map[string]interface{}{"scores": scores}
	path := "/api/students/" + studentID + "/scores"
	return c.do(ctx, http.MethodPut, path, body, nil, http.StatusOK)
}

// Finalize locks a student's score set and returns the stamped average.
func (c *Client) Finalize(ctx context.Context, studentID string) (float64, error) {
	var resp struct {
		Average float64 `json:"average"`
	}
	path := "/api/students/" + studentID + "/finalize"
	err := c.do(ctx, http.MethodPost, path, nil, &resp, http.StatusOK)
	return resp.Average, err
}

// Recap fetches the ranked recap, optionally scoped and truncated.
func (c *Client) Recap(ctx context.Context, eventID string, limit int) ([]recapRow, error) {
	q := url.Values{}
	if eventID != "" {
		q.Set("event_id", eventID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/api/recap"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var resp struct {
		Rows []recapRow `json:"rows"`
	}
	err := c.do(ctx, http.MethodGet, path, nil, &resp, http.StatusOK)
	return resp.Rows, err
}
