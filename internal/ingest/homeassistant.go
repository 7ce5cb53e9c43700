// Package ingest pulls sensor state snapshots from a Home Assistant
// instance into the local state store.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/meterhub/forecastd/internal/models"
	"github.com/meterhub/forecastd/internal/states"
)

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errUnexpected  = errors.New("unexpected status code")
	errCircuitOpen = errors.New("circuit breaker open")
)

// Backoff controls retry behaviour for upstream fetches.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// Client fetches entity states from the Home Assistant REST API using a
// long-lived access token. Transient upstream failures are retried with
// exponential backoff behind a circuit breaker so a flapping instance
// cannot stall every sync cycle.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	backoff Backoff
	breaker *gobreaker.CircuitBreaker
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    httpClient,
		backoff: Backoff{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "homeassistant",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// haEntity mirrors the wire shape of /api/states entries.
type haEntity struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastUpdated string         `json:"last_updated"`
}

// FetchStates retrieves all entity states from the instance.
func (c *Client) FetchStates(ctx context.Context) ([]*models.State, error) {
	resp, err := c.do(ctx, c.baseURL+"/api/states")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entities []haEntity
	if err := json.NewDecoder(resp.Body).Decode(&entities); err != nil {
		return nil, fmt.Errorf("failed to decode states response: %w", err)
	}

	out := make([]*models.State, 0, len(entities))
	for _, e := range entities {
		state := &models.State{
			EntityID:   e.EntityID,
			Value:      e.State,
			Attributes: e.Attributes,
		}
		if ts, err := time.Parse(time.RFC3339, e.LastUpdated); err == nil {
			state.LastUpdated = ts.UTC()
		}
		out = append(out, state)
	}
	return out, nil
}

// do executes the GET with retries, exponential backoff, and the
// circuit breaker.
func (c *Client) do(ctx context.Context, url string) (*http.Response, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.token)

		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, execErr := c.http.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode == http.StatusTooManyRequests {
				resp.Body.Close()
				return nil, errRateLimited
			}
			if resp.StatusCode >= 500 {
				resp.Body.Close()
				return nil, errServerError
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval << attempt
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

// Fetcher is the upstream contract consumed by the Ingestor; satisfied
// by Client.
type Fetcher interface {
	FetchStates(ctx context.Context) ([]*models.State, error)
}

// Ingestor syncs upstream snapshots into the state store, optionally
// restricted to a configured entity allowlist.
type Ingestor struct {
	fetcher  Fetcher
	store    states.Store
	entities map[string]bool
	log      *logrus.Logger
}

// NewIngestor builds an ingestor. An empty entity list means every
// upstream entity is ingested.
func NewIngestor(fetcher Fetcher, store states.Store, entities []string, log *logrus.Logger) *Ingestor {
	var allow map[string]bool
	if len(entities) > 0 {
		allow = make(map[string]bool, len(entities))
		for _, id := range entities {
			allow[id] = true
		}
	}
	return &Ingestor{fetcher: fetcher, store: store, entities: allow, log: log}
}

// Sync fetches the current upstream states and upserts the matching
// ones. It returns the number of snapshots stored.
func (i *Ingestor) Sync(ctx context.Context) (int, error) {
	fetched, err := i.fetcher.FetchStates(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch upstream states: %w", err)
	}

	var stored int
	for _, state := range fetched {
		if i.entities != nil && !i.entities[state.EntityID] {
			continue
		}
		if err := i.store.Upsert(ctx, state); err != nil {
			return stored, fmt.Errorf("failed to store state for %s: %w", state.EntityID, err)
		}
		stored++
	}

	i.log.WithFields(logrus.Fields{
		"fetched": len(fetched),
		"stored":  stored,
	}).Info("Synced sensor states")
	return stored, nil
}
