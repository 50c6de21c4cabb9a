// Package oncall implements the roster read client against the on-call
// scheduling service's HTTP API.
package oncall

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"targetsync/internal/domain/roster"
	"targetsync/internal/shared/config"
	"targetsync/internal/shared/logger"
	"targetsync/internal/shared/phone"
)

const (
	usersPath = "/api/v0/users"
	teamsPath = "/api/v0/teams"

	// Maximum response body size for roster snapshots (8MB). A roster
	// larger than this is a sign of an upstream fault, not real data.
	maxResponseSize = 8 << 20
)

// phoneModes are the contact modes whose destinations are phone numbers
// and get normalized before storage.
var phoneModes = map[string]struct{}{
	"sms":  {},
	"call": {},
}

// rosterUser is one element of the users endpoint response.
type rosterUser struct {
	Name     string            `json:"name"`
	Active   int               `json:"active"`
	Contacts map[string]string `json:"contacts"`
}

// Client fetches user and team snapshots over HTTP. Both fetch
// operations are total: failures are logged and come back as empty
// results, which the sync engine treats as "unknown" rather than
// "empty upstream".
type Client struct {
	baseURL    string
	region     string
	httpClient *http.Client
	logger     logger.Interface
}

// NewClient creates a roster client for the configured service.
// Phone contacts without a country prefix are parsed against region.
func NewClient(cfg *config.OncallConfig, region string, log logger.Interface) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		region:  region,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
		logger: log,
	}
}

var _ roster.Client = (*Client)(nil)

// FetchUsers returns the active roster users with their contact
// destinations keyed by mode. Inactive users are dropped; phone
// destinations that fail to parse are dropped per contact, never
// failing the user.
func (c *Client) FetchUsers(ctx context.Context) map[string]map[string]string {
	url := c.baseURL + usersPath + "?fields=name&fields=contacts&fields=active"

	var raw []rosterUser
	if err := c.getJSON(ctx, url, &raw); err != nil {
		c.logger.Errorw("failed to fetch roster users", "error", err)
		return map[string]map[string]string{}
	}

	users := make(map[string]map[string]string, len(raw))
	for _, u := range raw {
		if u.Active == 0 || u.Name == "" {
			continue
		}
		contacts := make(map[string]string, len(u.Contacts))
		for mode, dest := range u.Contacts {
			if dest == "" {
				continue
			}
			if _, isPhone := phoneModes[mode]; isPhone {
				normalized, err := phone.Normalize(dest, c.region)
				if err != nil {
					c.logger.Warnw("dropping unparsable phone contact",
						"user", u.Name,
						"mode", mode,
						"error", err,
					)
					continue
				}
				dest = normalized
			}
			contacts[mode] = dest
		}
		users[u.Name] = contacts
	}
	return users
}

// FetchTeams returns the names of active roster teams.
func (c *Client) FetchTeams(ctx context.Context) []string {
	url := c.baseURL + teamsPath + "?fields=name&active=1"

	var names []string
	if err := c.getJSON(ctx, url, &names); err != nil {
		c.logger.Errorw("failed to fetch roster teams", "error", err)
		return nil
	}

	teams := names[:0]
	for _, n := range names {
		if n != "" {
			teams = append(teams, n)
		}
	}
	return teams
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		io.CopyN(io.Discard, resp.Body, 512)
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	body := io.LimitReader(resp.Body, maxResponseSize)
	if err := json.NewDecoder(body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
