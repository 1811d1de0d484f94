// internal/offclient/client.go
package offclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"nutriscan/internal/logging"
	"nutriscan/internal/models"
	"nutriscan/internal/scoring"
)

const DefaultBaseURL = "https://world.openfoodfacts.org"

var (
	// ErrProductNotFound means the database has no product for the barcode.
	ErrProductNotFound = fmt.Errorf("%w: product not found", scoring.ErrUnavailableData)
	// ErrUnavailable means the database could not be reached or answered with an error.
	ErrUnavailable = fmt.Errorf("%w: open food facts unavailable", scoring.ErrUnavailableData)
	// ErrMalformedResponse means the answer was not JSON.
	ErrMalformedResponse = errors.New("malformed open food facts response")
)

type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RetryMax  int
	UserAgent string
}

// Client fetches product records from Open Food Facts.
type Client struct {
	http      *retryablehttp.Client
	baseURL   string
	userAgent string
	log       *logrus.Entry
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "nutriscan/1.0"
	}

	entry := logging.Component("offclient")
	httpClient := retryablehttp.NewClient()
	httpClient.RetryMax = cfg.RetryMax
	httpClient.HTTPClient.Timeout = cfg.Timeout
	httpClient.Logger = leveledLogger{entry: entry}

	return &Client{
		http:      httpClient,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		log:       entry,
	}
}

// Product fetches and parses the record for barcode.
func (c *Client) Product(ctx context.Context, barcode string) (*models.ProductRecord, error) {
	barcode = strings.TrimSpace(barcode)
	if !validBarcode(barcode) {
		return nil, fmt.Errorf("%w: invalid barcode %q", scoring.ErrMalformedRecord, barcode)
	}

	body, err := c.get(ctx, "/api/v0/product/"+url.PathEscape(barcode)+".json")
	if err != nil {
		return nil, err
	}

	rec, err := ParseProduct(barcode, body)
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"barcode": barcode, "name": rec.Name}).Debug("product fetched")
	return rec, nil
}

// AdditiveNames resolves additive codes to display names, "Unknown" when the
// taxonomy has no entry. The result is index-aligned with codes.
func (c *Client) AdditiveNames(ctx context.Context, codes []string) ([]string, error) {
	names := make([]string, 0, len(codes))
	if len(codes) == 0 {
		return names, nil
	}

	body, err := c.get(ctx, "/additives.json")
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, ErrMalformedResponse
	}

	byCode := map[string]string{}
	gjson.GetBytes(body, "tags").ForEach(func(_, tag gjson.Result) bool {
		id := tag.Get("id").String()
		if id != "" {
			byCode[scoring.NormalizeAdditive(id)] = tag.Get("name").String()
		}
		return true
	})

	for _, code := range codes {
		name, ok := byCode[scoring.NormalizeAdditive(code)]
		if !ok || name == "" {
			name = "Unknown"
		}
		names = append(names, name)
	}
	return names, nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: request failed with status %d", ErrUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read body: %v", ErrUnavailable, err)
	}
	return body, nil
}

func validBarcode(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// leveledLogger routes retryablehttp's logging into logrus.
type leveledLogger struct {
	entry *logrus.Entry
}

func (l leveledLogger) with(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.entry.WithFields(fields)
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Error(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Warn(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.with(keysAndValues).Debug(msg)
}
