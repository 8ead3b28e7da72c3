package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fileshare/internal/models"
)

// UnknownErrorMessage is shown when the server could not be reached or answered unintelligibly.
const UnknownErrorMessage = "An unknown error occurred"

var (
	// ErrUnknown wraps transport failures. The draft is left untouched.
	ErrUnknown = errors.New("unknown error")
	// ErrEmptyDraft is returned by Submit for a draft without text or files.
	ErrEmptyDraft = errors.New("post must include text or at least one file")
)

// APIError is a non-success response from the server.
type APIError struct {
	Status  int
	Message string
	Code    string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Message returns the text to show a user for err: the server message for
// API errors and UnknownErrorMessage otherwise.
func Message(err error) string {
	if errors.Is(err, ErrUnknown) {
		return UnknownErrorMessage
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrEmptyDraft) {
		return "Please add some text or at least one file."
	}
	return UnknownErrorMessage
}

// Client talks to a fileshare server.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for the server at baseURL, e.g. "http://localhost:3000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Submit sends the draft as one multipart request. The draft is reset only when
// the post was created.
func (c *Client) Submit(ctx context.Context, d *Draft) (*models.Post, error) {
	if d.Empty() {
		return nil, ErrEmptyDraft
	}

	body, contentType, err := encodeDraft(d)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/api/posts", nil), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	var post models.Post
	if _, err := c.do(req, http.StatusCreated, &post); err != nil {
		return nil, err
	}

	d.Reset()
	return &post, nil
}

// Publish submits the draft and then re-fetches the feed.
func (c *Client) Publish(ctx context.Context, d *Draft) (*models.Post, []models.Post, error) {
	post, err := c.Submit(ctx, d)
	if err != nil {
		return nil, nil, err
	}
	feed, err := c.Feed(ctx)
	if err != nil {
		return post, nil, err
	}
	return post, feed, nil
}

// Feed returns every post, newest first.
func (c *Client) Feed(ctx context.Context) ([]models.Post, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/posts", nil), nil)
	if err != nil {
		return nil, err
	}
	var posts []models.Post
	if _, err := c.do(req, http.StatusOK, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SalesQuery selects a page of mock sales. Zero values are omitted.
type SalesQuery struct {
	Product   string
	Location  string
	UserName  string
	MinAmount *float64
	MaxAmount *float64
	StartDate string
	EndDate   string
	Page      int
}

// SalesPage is one page of sales plus the filtered total.
type SalesPage struct {
	Records []models.SalesRecord
	Total   int
}

func (q SalesQuery) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("product", q.Product)
	set("location", q.Location)
	set("userName", q.UserName)
	set("startDate", q.StartDate)
	set("endDate", q.EndDate)
	if q.MinAmount != nil {
		v.Set("minAmount", strconv.FormatFloat(*q.MinAmount, 'f', -1, 64))
	}
	if q.MaxAmount != nil {
		v.Set("maxAmount", strconv.FormatFloat(*q.MaxAmount, 'f', -1, 64))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}

// Sales queries the mock sales endpoint.
func (c *Client) Sales(ctx context.Context, q SalesQuery) (*SalesPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/api/sales-mock", q.values()), nil)
	if err != nil {
		return nil, err
	}

	var records []models.SalesRecord
	resp, err := c.do(req, http.StatusOK, &records)
	if err != nil {
		return nil, err
	}

	total, err := strconv.Atoi(resp.Header.Get("X-Total-Count"))
	if err != nil {
		return nil, fmt.Errorf("%w: missing X-Total-Count", ErrUnknown)
	}
	return &SalesPage{Records: records, Total: total}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends req and decodes a want-status JSON body into out.
func (c *Client) do(req *http.Request, want int, out any) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknown, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != want {
		return nil, decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrUnknown, err)
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body models.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Code = body.Code
		apiErr.Details = body.Details
		return apiErr
	}

	apiErr.Message = http.StatusText(resp.StatusCode)
	return fmt.Errorf("%w: %w", ErrUnknown, apiErr)
}

func encodeDraft(d *Draft) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if err := w.WriteField("text", d.Text); err != nil {
		return nil, "", err
	}
	for _, f := range d.Files() {
		if err := writeFilePart(w, f); err != nil {
			return nil, "", fmt.Errorf("attach %s: %w", f.Key.Name, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &body, w.FormDataContentType(), nil
}

func writeFilePart(w *multipart.Writer, f DraftFile) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	part, err := w.CreateFormFile("files", f.Key.Name)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}
