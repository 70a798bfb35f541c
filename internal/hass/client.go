// Package hass talks to a Home Assistant instance over its REST API.
package hass

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"template_purifier/internal/logger"
	"template_purifier/internal/models"
	"template_purifier/internal/purifier"
)

const (
	statesEndpoint   = "/api/states"
	servicesEndpoint = "/api/services/"

	defaultTimeout = 10 * time.Second
)

var ErrUnexpectedStatus = errors.New("unexpected HTTP status from hub")

// Client is a minimal Home Assistant REST client authenticated with a
// long-lived access token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *logger.Logger

	wg sync.WaitGroup
}

func NewClient(baseURL, token string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return nil, fmt.Errorf("unable to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("unable to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %d %s", ErrUnexpectedStatus, req.Method, req.URL.Path,
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("unable to parse JSON response: %w", err)
	}
	return nil
}

// States fetches every entity state known to the hub.
func (c *Client) States(ctx context.Context) ([]models.EntityState, error) {
	req, err := c.newRequest(ctx, http.MethodGet, statesEndpoint, nil)
	if err != nil {
		return nil, err
	}
	var out []models.EntityState
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetState creates or replaces an entity state on the hub, as the purifier
// publisher does after each refresh in remote mode.
func (c *Client) SetState(ctx context.Context, st models.EntityState) (models.EntityState, error) {
	body := map[string]any{"state": st.State}
	if st.Attributes != nil {
		body["attributes"] = st.Attributes
	}
	req, err := c.newRequest(ctx, http.MethodPost, statesEndpoint+"/"+url.PathEscape(st.EntityID), body)
	if err != nil {
		return models.EntityState{}, err
	}
	var out models.EntityState
	if err := c.do(req, &out); err != nil {
		return models.EntityState{}, err
	}
	return out, nil
}

// Publisher adapts SetState to purifier.Publisher.
type Publisher struct{ *Client }

func (p Publisher) Set(ctx context.Context, st models.EntityState) (models.EntityState, error) {
	return p.SetState(ctx, st)
}

// CallService invokes domain.action with data as the JSON body.
func (c *Client) CallService(ctx context.Context, domain, action string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	path := servicesEndpoint + url.PathEscape(domain) + "/" + url.PathEscape(action)
	req, err := c.newRequest(ctx, http.MethodPost, path, data)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Call implements purifier.Dispatcher. Non-blocking calls are sent in the
// background; their failures are only logged.
func (c *Client) Call(ctx context.Context, ref purifier.ServiceRef, data map[string]any, blocking bool) error {
	if blocking {
		return c.CallService(ctx, ref.Domain, ref.Action, data)
	}
	bg := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.CallService(bg, ref.Domain, ref.Action, data); err != nil {
			c.log.Warnw("hass_call_failed", "service", ref.String(), "err", err)
		}
	}()
	return nil
}

// Wait blocks until background calls have finished.
func (c *Client) Wait() { c.wg.Wait() }
