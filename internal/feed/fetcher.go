package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"kiosk/server/internal/models"
)

const maxBodySize = 32 << 20

var (
	ErrMissingFeedIdentity = errors.New("missing feed client or property")
	ErrUnexpectedStatus    = errors.New("unexpected response status")
	ErrEmptyBody           = errors.New("response body is empty")
	ErrInvalidPayload      = errors.New("invalid feed payload")
)

// Fetcher retrieves one raw feed.
type Fetcher interface {
	FetchFeed(ctx context.Context) (*models.RawFeed, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (*models.RawFeed, error)

func (f FetcherFunc) FetchFeed(ctx context.Context) (*models.RawFeed, error) { return f(ctx) }

// Source identifies the feed document to retrieve.
type Source struct {
	BaseURL  string
	Client   string
	Property string
	Suffix   string
}

// URL returns <base>/<client>-<property><suffix>.
func (s Source) URL() string {
	return fmt.Sprintf("%s/%s-%s%s", strings.TrimRight(s.BaseURL, "/"), s.Client, s.Property, s.Suffix)
}

// HTTPFetcher downloads the feed over HTTP.
type HTTPFetcher struct {
	source Source
	client *http.Client
	logger *logrus.Logger
}

func NewHTTPFetcher(source Source, timeout time.Duration, logger *logrus.Logger) *HTTPFetcher {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &HTTPFetcher{
		source: source,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// FetchFeed performs one GET. Non-2xx responses, empty bodies and payloads
// that are not a feed all fail.
func (f *HTTPFetcher) FetchFeed(ctx context.Context) (*models.RawFeed, error) {
	if f.source.Client == "" || f.source.Property == "" {
		return nil, ErrMissingFeedIdentity
	}

	url := f.source.URL()
	f.logger.WithField("feed_url", url).Info("Fetching property data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch property data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch property data: %w: %s", ErrUnexpectedStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyBody
	}

	if err := validatePayload(body); err != nil {
		f.logger.WithError(err).WithField("feed_url", url).Warn("Rejected feed payload")
		return nil, err
	}

	var feed models.RawFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	f.logger.WithFields(logrus.Fields{
		"feed_url":  url,
		"available": len(feed.Available),
		"map_lots":  len(feed.MapLots),
	}).Info("Fetched property data")
	return &feed, nil
}
