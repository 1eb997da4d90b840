// Copyright 2024-2026 Aiku AI

package slackrtm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aiku/slacktail/pkg/connerr"
)

// DefaultAPIURL is the Slack web API base.
const DefaultAPIURL = "https://slack.com/api/"

const pageLimit = 200

// APIClient calls the handful of Slack web API methods needed to open an RTM
// session and fill the directory. Every error it returns is classified.
type APIClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewAPIClient returns a client for the API rooted at baseURL. A nil
// httpClient uses a client with a 30 second timeout.
func NewAPIClient(baseURL, token string, httpClient *http.Client) *APIClient {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &APIClient{baseURL: baseURL, token: token, http: httpClient}
}

type apiResponse interface {
	envelope() *baseResponse
}

type baseResponse struct {
	OK               bool   `json:"ok"`
	Error            string `json:"error"`
	ResponseMetadata struct {
		NextCursor string `json:"next_cursor"`
	} `json:"response_metadata"`
}

func (b *baseResponse) envelope() *baseResponse { return b }

// call POSTs form to method and decodes the JSON body into out.
func (c *APIClient) call(ctx context.Context, method string, form url.Values, out apiResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, classifyNetError(err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", method, connerr.New(connerr.KindRateLimited, "ratelimited",
			fmt.Errorf("retry after %q", resp.Header.Get("Retry-After"))))
	case resp.StatusCode >= 500:
		return fmt.Errorf("%s: %w", method, connerr.New(connerr.KindService, "",
			fmt.Errorf("HTTP %d", resp.StatusCode)))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s: %w", method, connerr.New(connerr.KindService, "",
			fmt.Errorf("unexpected HTTP %d", resp.StatusCode)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: %w", method, classifyNetError(err))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: %w", method, connerr.New(connerr.KindService, "", fmt.Errorf("decode response: %w", err)))
	}
	if env := out.envelope(); !env.OK {
		return fmt.Errorf("%s: %w", method, connerr.FromCode(env.Error))
	}
	return nil
}

// Self is the authenticated user as reported by rtm.connect.
type Self struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Team is the workspace as reported by rtm.connect.
type Team struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// ConnectInfo is the result of rtm.connect.
type ConnectInfo struct {
	URL  string `json:"url"`
	Self Self   `json:"self"`
	Team Team   `json:"team"`
}

type connectResponse struct {
	baseResponse
	ConnectInfo
}

// Connect calls rtm.connect and returns the websocket URL for a new session.
func (c *APIClient) Connect(ctx context.Context) (*ConnectInfo, error) {
	var resp connectResponse
	if err := c.call(ctx, "rtm.connect", url.Values{}, &resp); err != nil {
		return nil, err
	}
	if resp.URL == "" {
		return nil, connerr.New(connerr.KindService, "", errors.New("rtm.connect: empty websocket url"))
	}
	return &resp.ConnectInfo, nil
}

type apiProfile struct {
	DisplayName string `json:"display_name"`
	RealName    string `json:"real_name"`
	BotID       string `json:"bot_id"`
}

type apiUser struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	RealName string     `json:"real_name"`
	Deleted  bool       `json:"deleted"`
	IsBot    bool       `json:"is_bot"`
	Profile  apiProfile `json:"profile"`
}

type usersResponse struct {
	baseResponse
	Members []apiUser `json:"members"`
}

// users pages through users.list.
func (c *APIClient) users(ctx context.Context) ([]apiUser, error) {
	var all []apiUser
	cursor := ""
	for {
		form := url.Values{"limit": {strconv.Itoa(pageLimit)}}
		if cursor != "" {
			form.Set("cursor", cursor)
		}
		var resp usersResponse
		if err := c.call(ctx, "users.list", form, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Members...)
		cursor = resp.ResponseMetadata.NextCursor
		if cursor == "" {
			return all, nil
		}
	}
}

type apiConversation struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsIM      bool   `json:"is_im"`
	IsMPIM    bool   `json:"is_mpim"`
	IsPrivate bool   `json:"is_private"`
	User      string `json:"user"`
}

type conversationsResponse struct {
	baseResponse
	Channels []apiConversation `json:"channels"`
}

// conversations pages through conversations.list for every conversation
// type the token can see.
func (c *APIClient) conversations(ctx context.Context) ([]apiConversation, error) {
	var all []apiConversation
	cursor := ""
	for {
		form := url.Values{
			"types":            {"public_channel,private_channel,mpim,im"},
			"exclude_archived": {"true"},
			"limit":            {strconv.Itoa(pageLimit)},
		}
		if cursor != "" {
			form.Set("cursor", cursor)
		}
		var resp conversationsResponse
		if err := c.call(ctx, "conversations.list", form, &resp); err != nil {
			return nil, err
		}
		all = append(all, resp.Channels...)
		cursor = resp.ResponseMetadata.NextCursor
		if cursor == "" {
			return all, nil
		}
	}
}

// classifyNetError marks dial, TLS, timeout and reset failures as transient.
// Context cancellation is left unclassified; the caller is shutting down.
func classifyNetError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	var opErr *net.OpError
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF),
		errors.As(err, &opErr),
		errors.As(err, &netErr),
		errors.As(err, &urlErr):
		return connerr.New(connerr.KindTransient, "", err)
	}
	return err
}
