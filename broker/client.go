package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/deemkeen/dodo/domain"
	"github.com/deemkeen/dodo/util"
	"github.com/google/uuid"
)

const DefaultBaseURL = "https://api.birdrelay.app/v1"

const errTypeAuthRequired = "authorization_required"

// Client talks to the broker's tool-execution endpoint. The broker owns
// the OAuth mechanics and the actual platform access; we only execute
// named tools against it and consume the typed responses.
type Client struct {
	BaseURL    string
	ApiKey     string
	UserId     string
	HTTPClient *http.Client
}

func NewClient(conf *util.AppConfig) *Client {
	baseURL := conf.Conf.BrokerUrl
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:    baseURL,
		ApiKey:     conf.ApiKey,
		UserId:     conf.UserId,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type apiError struct {
	Type         string `json:"type"`
	Service      string `json:"service"`
	AuthorizeUrl string `json:"authorize_url"`
	State        string `json:"state"`
	Message      string `json:"message"`
}

type envelope struct {
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error,omitempty"`
}

// call executes one named broker tool and decodes its result into out.
func (c *Client) call(ctx context.Context, tool string, args interface{}, out interface{}) error {
	reqBody, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encoding %s arguments: %w", tool, err)
	}

	url := fmt.Sprintf("%s/tools/%s", c.BaseURL, tool)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", tool, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.ApiKey)
	req.Header.Set("User-Agent", util.GetNameAndVersion())
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.UserId != "" {
		req.Header.Set("X-User-Id", c.UserId)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling broker tool %s: %w", tool, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if env.Error != nil && env.Error.Type == errTypeAuthRequired {
		return &AuthRequiredError{
			Service:      env.Error.Service,
			AuthorizeUrl: env.Error.AuthorizeUrl,
			State:        env.Error.State,
			Message:      env.Error.Message,
		}
	}

	// A bare 401 without the structured body still means our credential
	// is no good.
	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthRequiredError{Service: "twitter", Message: "broker rejected credential"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if env.Error != nil {
			return fmt.Errorf("broker tool %s failed (%d): %s", tool, resp.StatusCode, env.Error.Message)
		}
		return fmt.Errorf("broker tool %s failed with status: %d", tool, resp.StatusCode)
	}

	if decodeErr != nil {
		return fmt.Errorf("decoding %s response: %w", tool, decodeErr)
	}
	if env.Error != nil {
		return fmt.Errorf("broker tool %s failed: %s", tool, env.Error.Message)
	}

	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decoding %s result: %w", tool, err)
		}
	}
	return nil
}

// SearchByKeywords searches recent posts matching the given phrases and
// returns them together with the authoritative author records.
func (c *Client) SearchByKeywords(ctx context.Context, phrases []string, maxResults int) (*domain.KeywordSearchResult, error) {
	args := map[string]interface{}{
		"phrases":     phrases,
		"max_results": maxResults,
	}
	var res struct {
		Tweets   []domain.Post `json:"tweets"`
		Includes struct {
			Users []domain.Author `json:"users"`
		} `json:"includes"`
	}
	if err := c.call(ctx, "search_tweets", args, &res); err != nil {
		return nil, err
	}
	return &domain.KeywordSearchResult{Posts: res.Tweets, Authors: res.Includes.Users}, nil
}

// SearchByAuthor returns the given user's recent posts.
func (c *Client) SearchByAuthor(ctx context.Context, handle string, maxResults int) (*domain.AuthorSearchResult, error) {
	args := map[string]interface{}{
		"username":    util.NormalizeHandle(handle),
		"max_results": maxResults,
	}
	var res struct {
		Tweets []domain.Post `json:"tweets"`
	}
	if err := c.call(ctx, "user_tweets", args, &res); err != nil {
		return nil, err
	}
	return &domain.AuthorSearchResult{Posts: res.Tweets}, nil
}

// LookupById resolves a single post and its author.
func (c *Client) LookupById(ctx context.Context, id string) (*domain.PostLookup, error) {
	args := map[string]interface{}{"id": id}
	var res struct {
		Tweet domain.Post   `json:"tweet"`
		User  domain.Author `json:"user"`
	}
	if err := c.call(ctx, "get_tweet", args, &res); err != nil {
		return nil, err
	}
	return &domain.PostLookup{Post: res.Tweet, Author: res.User}, nil
}

// CreatePost publishes a post, optionally as a reply or quote.
func (c *Client) CreatePost(ctx context.Context, text string, replyToId string, quoteId string) (*domain.PostReceipt, error) {
	args := map[string]interface{}{"text": text}
	if replyToId != "" {
		args["reply_to_id"] = replyToId
	}
	if quoteId != "" {
		args["quote_tweet_id"] = quoteId
	}
	var res domain.PostReceipt
	if err := c.call(ctx, "post_tweet", args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
