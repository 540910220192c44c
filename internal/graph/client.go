// Package graph talks to the Facebook Graph API on behalf of one page.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"github.com/anonto42/page-comments/backend/pkg/logging"
	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
)

// MaxLimit is the largest page size the Graph API accepts for edges
const MaxLimit = 100

const (
	pageFields    = "id,name,fan_count,verification_status,picture"
	postFields    = "id,message,created_time,type,permalink_url"
	commentFields = "id,message,created_time,from,comment_count,like_count"
)

// Client is the subset of the Graph API the dashboard needs
type Client interface {
	FetchPage(ctx context.Context, pageID string) (*models.Page, error)
	FetchPosts(ctx context.Context, pageID string, limit int) ([]models.Post, error)
	FetchComments(ctx context.Context, postID string, limit int) ([]models.GraphComment, error)
	FetchReplies(ctx context.Context, commentID string, limit int) ([]models.GraphComment, error)
	// PostReply publishes message as a reply and returns the platform reply id
	PostReply(ctx context.Context, commentID, message string) (string, error)
	PostLike(ctx context.Context, commentID string) error
}

// Options configures an HTTPClient
type Options struct {
	BaseURL     string
	APIVersion  string
	AccessToken string
	Timeout     time.Duration
	MaxRetries  int
	// RetryDelay is the first backoff delay for reads
	RetryDelay time.Duration
	HTTPClient *http.Client
	Logger     logging.Logger
}

type response struct {
	status int
	body   []byte
}

// HTTPClient is the live Graph API client. Reads are retried with backoff;
// writes are never retried because a reply is not idempotent. Both share one
// circuit breaker so a failing upstream is not hammered.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
	reads   failsafe.Executor[*response]
	writes  failsafe.Executor[*response]
	logger  logging.Logger
}

// NewHTTPClient builds a live client from opts
func NewHTTPClient(opts Options) *HTTPClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://graph.facebook.com"
	}
	if opts.APIVersion == "" {
		opts.APIVersion = "v18.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 200 * time.Millisecond
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger("info")
	}

	breaker := circuitbreaker.NewBuilder[*response]().
		WithFailureThresholdRatio(5, 10).
		WithDelay(15 * time.Second).
		WithSuccessThreshold(1).
		HandleIf(func(resp *response, err error) bool {
			return err != nil || (resp != nil && resp.status >= 500)
		}).
		OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
			opts.Logger.WithFields(logging.Fields{
				"from_state": fmt.Sprint(event.OldState),
				"to_state":   fmt.Sprint(event.NewState),
			}).Warn("graph circuit breaker state change")
		}).
		Build()

	retry := retrypolicy.NewBuilder[*response]().
		WithBackoff(opts.RetryDelay, 5*time.Second).
		WithMaxRetries(opts.MaxRetries).
		WithJitterFactor(0.1).
		HandleIf(shouldRetry).
		Build()

	return &HTTPClient{
		baseURL: strings.TrimRight(opts.BaseURL, "/") + "/" + strings.Trim(opts.APIVersion, "/"),
		token:   opts.AccessToken,
		http:    opts.HTTPClient,
		reads:   failsafe.With[*response](retry, breaker),
		writes:  failsafe.With[*response](breaker),
		logger:  opts.Logger,
	}
}

// shouldRetry retries network errors, server errors and rate limits
func shouldRetry(resp *response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return true
	}
	return resp.status >= 500 || resp.status == http.StatusTooManyRequests
}

type graphError struct {
	Error *struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
	} `json:"error"`
}

func (c *HTTPClient) endpoint(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

func (c *HTTPClient) do(ctx context.Context, op string, exec failsafe.Executor[*response], build func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	start := time.Now()
	resp, err := exec.WithContext(ctx).Get(func() (*response, error) {
		req, err := build(ctx)
		if err != nil {
			return nil, err
		}
		httpResp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer func() { _ = httpResp.Body.Close() }()

		body, err := io.ReadAll(io.LimitReader(httpResp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		return &response{status: httpResp.StatusCode, body: body}, nil
	})

	fields := logging.Fields{"operation": op, "duration_ms": time.Since(start).Milliseconds()}
	if resp != nil && resp.status >= 400 {
		apiErr := parseError(op, resp)
		c.logger.WithFields(fields).WithField("code", apiErr.Code).Warn("graph request rejected")
		return nil, apiErr
	}
	if err != nil {
		c.logger.WithFields(fields).WithError(err).Warn("graph request failed")
		return nil, &apperrors.ExternalAPIError{Operation: op, Message: err.Error(), Err: err}
	}
	c.logger.WithFields(fields).Debug("graph request completed")
	return resp.body, nil
}

func parseError(op string, resp *response) *apperrors.ExternalAPIError {
	apiErr := &apperrors.ExternalAPIError{Operation: op, StatusCode: resp.status}
	var ge graphError
	if err := json.Unmarshal(resp.body, &ge); err == nil && ge.Error != nil {
		apiErr.Code = ge.Error.Code
		apiErr.Subcode = ge.Error.ErrorSubcode
		apiErr.Type = ge.Error.Type
		apiErr.Message = ge.Error.Message
		return apiErr
	}
	apiErr.Message = http.StatusText(resp.status)
	return apiErr
}

func (c *HTTPClient) get(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	return c.getWithToken(ctx, op, c.token, path, params, out)
}

func (c *HTTPClient) getWithToken(ctx context.Context, op, token, path string, params url.Values, out interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("access_token", token)
	target := c.endpoint(path) + "?" + params.Encode()

	body, err := c.do(ctx, op, c.reads, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apperrors.ExternalAPIError{Operation: op, Message: "invalid response body", Err: err}
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, op, path string, form url.Values, out interface{}) error {
	if form == nil {
		form = url.Values{}
	}
	form.Set("access_token", c.token)
	encoded := form.Encode()

	body, err := c.do(ctx, op, c.writes, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &apperrors.ExternalAPIError{Operation: op, Message: "invalid response body", Err: err}
	}
	return nil
}

// clampLimit keeps limit within 1..MaxLimit, using def when unset
func clampLimit(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return limit
}

func limitParams(fields string, limit int) url.Values {
	return url.Values{
		"fields": {fields},
		"limit":  {strconv.Itoa(limit)},
	}
}

// FetchPage returns page metadata
func (c *HTTPClient) FetchPage(ctx context.Context, pageID string) (*models.Page, error) {
	var page models.Page
	if err := c.get(ctx, "fetch page", url.PathEscape(pageID), url.Values{"fields": {pageFields}}, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// FetchPosts returns the most recent posts of a page
func (c *HTTPClient) FetchPosts(ctx context.Context, pageID string, limit int) ([]models.Post, error) {
	var out struct {
		Data []models.Post `json:"data"`
	}
	path := url.PathEscape(pageID) + "/posts"
	if err := c.get(ctx, "fetch posts", path, limitParams(postFields, clampLimit(limit, 25)), &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// FetchComments returns the comments of a post
func (c *HTTPClient) FetchComments(ctx context.Context, postID string, limit int) ([]models.GraphComment, error) {
	return c.fetchCommentEdge(ctx, "fetch comments", postID, clampLimit(limit, 50))
}

// FetchReplies returns the replies to a comment
func (c *HTTPClient) FetchReplies(ctx context.Context, commentID string, limit int) ([]models.GraphComment, error) {
	return c.fetchCommentEdge(ctx, "fetch replies", commentID, clampLimit(limit, 25))
}

func (c *HTTPClient) fetchCommentEdge(ctx context.Context, op, parentID string, limit int) ([]models.GraphComment, error) {
	var out struct {
		Data []models.GraphComment `json:"data"`
	}
	path := url.PathEscape(parentID) + "/comments"
	if err := c.get(ctx, op, path, limitParams(commentFields, limit), &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// PostReply publishes a reply under commentID
func (c *HTTPClient) PostReply(ctx context.Context, commentID, message string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	form := url.Values{"message": {message}}
	if err := c.post(ctx, "post reply", url.PathEscape(commentID)+"/comments", form, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", &apperrors.ExternalAPIError{Operation: "post reply", Message: "response carried no reply id"}
	}
	return out.ID, nil
}

// PostLike likes a comment as the page
func (c *HTTPClient) PostLike(ctx context.Context, commentID string) error {
	if err := c.post(ctx, "like comment", url.PathEscape(commentID)+"/likes", nil, nil); err != nil {
		return fmt.Errorf("like %s: %w", commentID, err)
	}
	return nil
}
