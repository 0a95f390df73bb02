package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/exp/slog"

	"racebot/internal/app/bot/config"
	"racebot/internal/domain/guild"
	"racebot/internal/domain/sync"
)

// Per-endpoint deadlines. Each call is attempted exactly once; retry policy
// belongs to the caller, not this client.
const (
	roleSyncTimeout   = 30 * time.Second
	memberSyncTimeout = 60 * time.Second
	userSyncTimeout   = 10 * time.Second
	queryTimeout      = 10 * time.Second
	searchTimeout     = 5 * time.Second
)

// Client talks to the team management API. All requests carry the shared
// API key, the configured guild id and the id of the Discord user the
// request acts on behalf of.
type Client struct {
	client  *http.Client
	log     *slog.Logger
	baseURL string
	apiKey  string
	guildID string
}

func New(cfg *config.Config, log *slog.Logger) *Client {
	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			DisableCompression:  false,
			DisableKeepAlives:   false,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &Client{
		client:  client,
		log:     log.With(slog.String("component", "api_client")),
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey:  cfg.APIKey,
		guildID: cfg.GuildID,
	}
}

// SyncGuildRoles replaces the remote role list with the given snapshot.
func (c *Client) SyncGuildRoles(ctx context.Context, actingUserID string, roles []guild.RoleSnapshot) (*sync.RoleSyncResult, error) {
	req := roleSyncRequest{Roles: toRolePayloads(roles)}

	status, body, err := c.do(ctx, "POST", "/sync_guild_roles", roleSyncTimeout, actingUserID, req, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.rejected("/sync_guild_roles", status, body)
	}

	var resp roleSyncResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse role sync response: %w", err)
	}

	return &sync.RoleSyncResult{
		Created: resp.Created,
		Updated: resp.Updated,
		Deleted: resp.Deleted,
		Total:   resp.Total,
	}, nil
}

// SyncGuildMembers replaces the remote member roster with the given snapshot.
func (c *Client) SyncGuildMembers(ctx context.Context, actingUserID string, members []guild.MemberSnapshot) (*sync.MemberSyncResult, error) {
	req := memberSyncRequest{Members: toMemberPayloads(members)}

	status, body, err := c.do(ctx, "POST", "/sync_guild_members", memberSyncTimeout, actingUserID, req, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.rejected("/sync_guild_members", status, body)
	}

	var resp memberSyncResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse member sync response: %w", err)
	}

	return &sync.MemberSyncResult{
		Created:     resp.Created,
		Updated:     resp.Updated,
		Rejoined:    resp.Rejoined,
		Left:        resp.Left,
		Linked:      resp.Linked,
		TotalActive: resp.TotalActive,
	}, nil
}

// SyncUserRoles updates a single member's role set. A 404 means the member
// has no linked account; that is a normal outcome, not a failure.
func (c *Client) SyncUserRoles(ctx context.Context, memberID string, roleIDs []string) (*sync.UserRoleSyncResult, error) {
	req := userRoleSyncRequest{RoleIDs: roleIDs}
	path := "/sync_user_roles/" + memberID

	status, body, err := c.do(ctx, "POST", path, userSyncTimeout, memberID, req, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		var resp userRoleSyncResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parse user role sync response: %w", err)
		}
		return &sync.UserRoleSyncResult{
			RolesSynced: resp.RolesSynced,
			Roles:       resp.Roles,
			Linked:      true,
		}, nil
	case http.StatusNotFound:
		return &sync.UserRoleSyncResult{Linked: false}, nil
	default:
		return nil, c.rejected(path, status, body)
	}
}

// TeamLinks fetches a short-lived magic link for the acting user. A nil
// result with nil error means the user has no linked account.
func (c *Client) TeamLinks(ctx context.Context, actingUserID string) (*TeamLinks, error) {
	status, body, err := c.do(ctx, "GET", "/team_links", queryTimeout, actingUserID, nil, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		var resp TeamLinks
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parse team links response: %w", err)
		}
		return &resp, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.rejected("/team_links", status, body)
	}
}

// MyProfile fetches the acting user's combined racing profile. A nil result
// with nil error means the user has no linked account.
func (c *Client) MyProfile(ctx context.Context, actingUserID string) (*Profile, error) {
	return c.fetchProfile(ctx, "/my_profile", actingUserID)
}

// TeammateProfile fetches another rider's profile by Zwift id.
func (c *Client) TeammateProfile(ctx context.Context, actingUserID string, zwid int) (*Profile, error) {
	return c.fetchProfile(ctx, fmt.Sprintf("/teammate_profile/%d", zwid), actingUserID)
}

func (c *Client) fetchProfile(ctx context.Context, path, actingUserID string) (*Profile, error) {
	status, body, err := c.do(ctx, "GET", path, queryTimeout, actingUserID, nil, nil)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		var resp Profile
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, fmt.Errorf("parse profile response: %w", err)
		}
		return &resp, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, c.rejected(path, status, body)
	}
}

// SearchTeammates returns autocomplete hits for a partial rider name.
func (c *Client) SearchTeammates(ctx context.Context, actingUserID, query string) ([]TeammateResult, error) {
	params := url.Values{"q": []string{query}}

	status, body, err := c.do(ctx, "GET", "/search_teammates", searchTimeout, actingUserID, nil, params)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.rejected("/search_teammates", status, body)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	return resp.Results, nil
}

// TriggerTeamUpdate asks the remote store to refresh the roster from
// ZwiftPower.
func (c *Client) TriggerTeamUpdate(ctx context.Context, actingUserID string) (*TriggerResult, error) {
	return c.trigger(ctx, "/update_zp_team", actingUserID)
}

// TriggerResultsUpdate asks the remote store to refresh race results from
// ZwiftPower.
func (c *Client) TriggerResultsUpdate(ctx context.Context, actingUserID string) (*TriggerResult, error) {
	return c.trigger(ctx, "/update_zp_results", actingUserID)
}

func (c *Client) trigger(ctx context.Context, path, actingUserID string) (*TriggerResult, error) {
	status, body, err := c.do(ctx, "POST", path, queryTimeout, actingUserID, nil, nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, c.rejected(path, status, body)
	}

	var resp TriggerResult
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse trigger response: %w", err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, timeout time.Duration, actingUserID string, body interface{}, params url.Values) (int, []byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Guild-Id", c.guildID)
	req.Header.Set("X-Discord-User-Id", actingUserID)

	c.log.Debug("sending request",
		slog.String("method", method),
		slog.String("path", path),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, c.classifyTransportError(path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &sync.Failure{
			Reason: sync.ReasonConnection,
			Err:    fmt.Errorf("read response body: %w", err),
		}
	}

	c.log.Debug("received response",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return resp.StatusCode, respBody, nil
}

func (c *Client) classifyTransportError(path string, err error) error {
	reason := sync.ReasonConnection

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		reason = sync.ReasonTimeout
	}

	c.log.Error("request failed",
		slog.String("path", path),
		slog.String("reason", string(reason)),
		slog.Any("error", err),
	)

	return &sync.Failure{Reason: reason, Err: err}
}

func (c *Client) rejected(path string, status int, body []byte) error {
	msg := string(body)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		msg = errResp.Message
	}

	c.log.Error("request rejected",
		slog.String("path", path),
		slog.Int("status", status),
		slog.String("message", msg),
	)

	return &sync.Failure{
		Reason:     sync.ReasonRemoteRejected,
		StatusCode: status,
		Body:       msg,
	}
}
