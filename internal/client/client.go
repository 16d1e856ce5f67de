// Package client talks to a running digits server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jmccallister93/Daily-Digits/internal/character"
	"github.com/jmccallister93/Daily-Digits/internal/decay"
	"github.com/jmccallister93/Daily-Digits/internal/notify"
	"github.com/jmccallister93/Daily-Digits/internal/store"
)

const (
	DefaultServerURL = "http://127.0.0.1:37778"
	httpTimeout      = 5 * time.Second
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the digits server.
type Client struct {
	http      *http.Client
	serverURL string
}

// New creates a client for serverURL. An empty URL uses DIGITS_URL, falling
// back to DefaultServerURL.
func New(serverURL string) *Client {
	if serverURL == "" {
		serverURL = os.Getenv("DIGITS_URL")
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &Client{
		http:      &http.Client{Timeout: httpTimeout},
		serverURL: serverURL,
	}
}

// URL returns the server base URL.
func (c *Client) URL() string {
	return c.serverURL
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s: %w", path, err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{Method: method, Path: path, Status: resp.StatusCode, Message: string(bytes.TrimSpace(data))}
		var msg struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &msg) == nil && msg.Error != "" {
			apiErr.Message = msg.Error
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Healthy checks if the server is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil) == nil
}

// Categories returns the categories in display order.
func (c *Client) Categories(ctx context.Context) ([]character.Category, error) {
	var out []character.Category
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out)
	return out, err
}

// Category returns one category.
func (c *Client) Category(ctx context.Context, id string) (character.Category, error) {
	var out character.Category
	err := c.do(ctx, http.MethodGet, "/api/categories/"+url.PathEscape(id), nil, &out)
	return out, err
}

// NewCategory is the body of an add-category request.
type NewCategory struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Gradient    [2]string `json:"gradient"`
	Stats       []string  `json:"stats"`
}

func (c *Client) AddCategory(ctx context.Context, nc NewCategory) (character.Category, error) {
	var out character.Category
	err := c.do(ctx, http.MethodPost, "/api/categories", nc, &out)
	return out, err
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

func statPath(categoryID, stat string) string {
	return "/api/categories/" + url.PathEscape(categoryID) + "/stats/" + url.PathEscape(stat)
}

func (c *Client) AddStat(ctx context.Context, categoryID, name string) (character.Category, error) {
	var out character.Category
	err := c.do(ctx, http.MethodPost, "/api/categories/"+url.PathEscape(categoryID)+"/stats", map[string]string{"name": name}, &out)
	return out, err
}

func (c *Client) RenameStat(ctx context.Context, categoryID, oldName, newName string) (character.Category, error) {
	var out character.Category
	err := c.do(ctx, http.MethodPatch, statPath(categoryID, oldName), map[string]string{"name": newName}, &out)
	return out, err
}

func (c *Client) RemoveStat(ctx context.Context, categoryID, name string) error {
	return c.do(ctx, http.MethodDelete, statPath(categoryID, name), nil, nil)
}

// AdjustStat adds delta to a stat directly, without logging an activity.
func (c *Client) AdjustStat(ctx context.Context, categoryID, name string, delta int) (character.Category, error) {
	var out character.Category
	err := c.do(ctx, http.MethodPost, statPath(categoryID, name)+"/points", map[string]int{"delta": delta}, &out)
	return out, err
}

// Activities returns the most recent limit entries in insertion order. A
// limit of zero returns the whole log.
func (c *Client) Activities(ctx context.Context, limit int) ([]character.ActivityLogEntry, error) {
	var out []character.ActivityLogEntry
	path := "/api/activities"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// NewActivity is the body of a log-activity request.
type NewActivity struct {
	Activity string             `json:"activity"`
	Category string             `json:"category"`
	Stat     character.StatList `json:"stat"`
	Points   int                `json:"points"`
}

func (c *Client) LogActivity(ctx context.Context, a NewActivity) (character.ActivityLogEntry, error) {
	var out character.ActivityLogEntry
	err := c.do(ctx, http.MethodPost, "/api/activities", a, &out)
	return out, err
}

// ActivityEdit is the body of an edit-activity request. Nil fields are left
// unchanged.
type ActivityEdit struct {
	Activity *string            `json:"activity,omitempty"`
	Category *string            `json:"category,omitempty"`
	Stat     character.StatList `json:"stat,omitempty"`
	Points   *int               `json:"points,omitempty"`
}

func (c *Client) EditActivity(ctx context.Context, id string, edit ActivityEdit) (character.ActivityLogEntry, error) {
	var out character.ActivityLogEntry
	err := c.do(ctx, http.MethodPatch, "/api/activities/"+url.PathEscape(id), edit, &out)
	return out, err
}

func (c *Client) DeleteActivity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/activities/"+url.PathEscape(id), nil, nil)
}

// DecaySetting is a setting as reported by the server. NextDue and
// RemainingMs are set only for enabled settings.
type DecaySetting struct {
	decay.Setting
	NextDue     *time.Time `json:"nextDue,omitempty"`
	RemainingMs *int64     `json:"remainingMs,omitempty"`
}

// Remaining returns the time until the next deduction.
func (d DecaySetting) Remaining() (time.Duration, bool) {
	if d.RemainingMs == nil {
		return 0, false
	}
	return time.Duration(*d.RemainingMs) * time.Millisecond, true
}

func decayPath(categoryID, stat string) string {
	return "/api/decay/" + url.PathEscape(categoryID) + "/" + url.PathEscape(stat)
}

func (c *Client) DecaySettings(ctx context.Context) ([]DecaySetting, error) {
	var out []DecaySetting
	err := c.do(ctx, http.MethodGet, "/api/decay", nil, &out)
	return out, err
}

func (c *Client) GetDecaySetting(ctx context.Context, categoryID, stat string) (DecaySetting, error) {
	var out DecaySetting
	err := c.do(ctx, http.MethodGet, decayPath(categoryID, stat), nil, &out)
	return out, err
}

func (c *Client) AddDecaySetting(ctx context.Context, ns decay.NewSetting) (DecaySetting, error) {
	var out DecaySetting
	err := c.do(ctx, http.MethodPost, "/api/decay", ns, &out)
	return out, err
}

func (c *Client) UpdateDecaySetting(ctx context.Context, categoryID, stat string, upd decay.SettingUpdate) (DecaySetting, error) {
	var out DecaySetting
	err := c.do(ctx, http.MethodPatch, decayPath(categoryID, stat), upd, &out)
	return out, err
}

func (c *Client) RemoveDecaySetting(ctx context.Context, categoryID, stat string) error {
	return c.do(ctx, http.MethodDelete, decayPath(categoryID, stat), nil, nil)
}

func (c *Client) Reconcile(ctx context.Context) (decay.ReconcileResult, error) {
	var out decay.ReconcileResult
	err := c.do(ctx, http.MethodPost, "/api/decay/reconcile", nil, &out)
	return out, err
}

func (c *Client) DecayHistory(ctx context.Context, limit int) ([]store.DecayEvent, error) {
	var out []store.DecayEvent
	err := c.do(ctx, http.MethodGet, "/api/decay/history?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

func (c *Client) Notifications(ctx context.Context, limit int) ([]notify.Notification, error) {
	var out []notify.Notification
	err := c.do(ctx, http.MethodGet, "/api/notifications?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}
