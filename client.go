package hubx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client talks to the remote auth and listings services. When a token
// is held in its TokenStore, requests carry it as a bearer credential.
type Client struct {
	authURL     string
	listingsURL string
	tokens      *TokenStore
	http        *http.Client
	log         *zap.Logger

	sellerID   string
	sellerName string
}

type clientConfig func(*Client)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(hc *http.Client) clientConfig {
	return clientConfig(func(c *Client) {
		c.http = hc
	})
}

// WithTokens sets the TokenStore read for the bearer credential.
func WithTokens(tokens *TokenStore) clientConfig {
	return clientConfig(func(c *Client) {
		c.tokens = tokens
	})
}

// WithClientLogger sets the logger used for request failures.
func WithClientLogger(log *zap.Logger) clientConfig {
	return clientConfig(func(c *Client) {
		c.log = log
	})
}

// WithSeller sets the seller recorded on new listings that do not name
// one themselves.
func WithSeller(id, name string) clientConfig {
	return clientConfig(func(c *Client) {
		c.sellerID = id
		c.sellerName = name
	})
}

// NewClient returns a Client for the given service base URLs.
func NewClient(authURL, listingsURL string, cfgs ...clientConfig) *Client {
	c := &Client{
		authURL:     strings.TrimSuffix(authURL, "/"),
		listingsURL: strings.TrimSuffix(listingsURL, "/"),
		http:        &http.Client{Timeout: 30 * time.Second},
		log:         zap.NewNop(),
	}

	for _, cfg := range cfgs {
		cfg(c)
	}
	return c
}

// LoginResponse is the auth service's answer. A response without an
// access token is a failed login.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Error       string `json:"error"`
}

// Login submits credentials. The returned error is non-nil only for
// transport failures (ErrTransport); a refusal is reported through a
// LoginResponse without AccessToken.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	var lr LoginResponse
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("%w: HTTP %d: malformed response: %v", ErrTransport, resp.StatusCode, err)
	}
	return &lr, nil
}

// SearchListings runs a free-text search. An empty query means no text
// filter. The service may answer with a bare array or with an object
// holding a "listings" array.
func (c *Client) SearchListings(ctx context.Context, query string) ([]Listing, error) {
	data, err := c.get(ctx, c.listingsURL+"/api/listings/search?q="+url.QueryEscape(query))
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var listings []Listing
		if err := json.Unmarshal(data, &listings); err != nil {
			return nil, fmt.Errorf("%w: malformed listings: %v", ErrTransport, err)
		}
		return listings, nil
	}

	var wrapped struct {
		Listings []Listing `json:"listings"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: malformed listings: %v", ErrTransport, err)
	}
	return wrapped.Listings, nil
}

// Health reports whether the listings service answers its health check.
func (c *Client) Health(ctx context.Context) error {
	data, err := c.get(ctx, c.listingsURL+"/api/listings/health")
	if err != nil {
		return err
	}

	var h struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("%w: malformed health response: %v", ErrTransport, err)
	}
	if h.Status != "healthy" {
		return fmt.Errorf("listings service status %q", h.Status)
	}
	return nil
}

// Image is a file attached to a new listing.
type Image struct {
	Filename string
	Content  io.Reader
}

// NewListing is what the user submits to create a listing.
type NewListing struct {
	Title       string
	Description string
	Price       float64
	Location    Location
	Category    string
	Condition   string
	SellerID    string
	SellerName  string
	Images      []Image
}

// Validate checks the fields the listings service requires.
func (n NewListing) Validate() error {
	switch {
	case strings.TrimSpace(n.Title) == "":
		return fmt.Errorf("%w: title is required", ErrInvalidListing)
	case n.Price < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidListing)
	case !n.Location.Valid():
		return fmt.Errorf("%w: %q", ErrUnknownLocation, n.Location)
	}
	return nil
}

// CreateListing uploads a new listing and returns the id it was assigned.
// It is fire-and-forget: the service's answer is only logged. Every form
// field the service reads is sent, empty when unknown; the seller falls
// back to the one set with WithSeller.
func (c *Client) CreateListing(ctx context.Context, n NewListing) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}

	id := uuid.NewString()
	sellerID, sellerName := n.SellerID, n.SellerName
	if sellerID == "" {
		sellerID, sellerName = c.sellerID, c.sellerName
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fields := [][2]string{
		{"id", id},
		{"title", n.Title},
		{"description", n.Description},
		{"price", strconv.FormatFloat(n.Price, 'f', -1, 64)},
		{"location", string(n.Location)},
		{"condition", n.Condition},
		{"category", n.Category},
		{"datePosted", time.Now().UTC().Format(time.RFC3339)},
		{"sellerId", sellerID},
		{"sellerName", sellerName},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", err
		}
	}
	for _, img := range n.Images {
		part, err := mw.CreateFormFile("file", img.Filename)
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(part, img.Content); err != nil {
			return "", fmt.Errorf("attach %s: %w", img.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.listingsURL+"/api/listings/create-listing", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := c.authorize(req); err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	c.log.Info("listing submitted", zap.String("id", id), zap.Int("status", resp.StatusCode))
	return id, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if err := c.authorize(req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: HTTP %d: %s", ErrRejected, resp.StatusCode, string(data))
	}
	return data, nil
}

func (c *Client) authorize(req *http.Request) error {
	if c.tokens == nil {
		return nil
	}
	token, ok, err := c.tokens.Read()
	if err != nil {
		return err
	}
	if ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}
