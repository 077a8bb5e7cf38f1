// Package casestatus looks up an agency case status by receipt number. The
// source is an HTML page, so the lookup is best effort: failures are typed
// and carry the request URL.
package casestatus

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alexanderramin/greenpath/internal/domain"
)

// Result is one normalized lookup.
type Result struct {
	Receipt     string
	Status      domain.CaseStatus
	Title       string
	Description string
	CheckedAt   time.Time
}

// Looker is the lookup contract consumed by services.
type Looker interface {
	Lookup(ctx context.Context, receipt string) (*Result, error)
}

// Client scrapes the public case status page.
type Client struct {
	endpoint string
	timeout  time.Duration
	http     *http.Client
	log      *zap.Logger
	now      func() time.Time
}

func NewClient(endpoint string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		endpoint: endpoint,
		timeout:  timeout,
		http:     &http.Client{},
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ValidateReceipt normalizes case and whitespace and checks the format.
func ValidateReceipt(raw string) (string, error) {
	r := domain.ParseReceipt(raw)
	v, ok := r.Get()
	if !ok {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidReceipt)
	}
	return v, nil
}

var (
	statusBlock = regexp.MustCompile(`(?is)<div[^>]*class="[^"]*rows text-center[^"]*"[^>]*>\s*<h1[^>]*>(.*?)</h1>\s*<p[^>]*>(.*?)</p>`)
	tags        = regexp.MustCompile(`(?s)<[^>]*>`)
)

func (c *Client) Lookup(ctx context.Context, receipt string) (*Result, error) {
	num, err := ValidateReceipt(receipt)
	if err != nil {
		return nil, err
	}

	// reqURL is reported on failure so the user can check by hand.
	reqURL := c.endpoint + "?appReceiptNum=" + url.QueryEscape(num)
	fail := func(err error) error {
		c.log.Warn("case status lookup failed", zap.String("receipt", num), zap.String("url", reqURL), zap.Error(err))
		return &LookupError{Receipt: num, URL: reqURL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	form := url.Values{"appReceiptNum": {num}, "initCaseSearch": {"CHECK STATUS"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fail(fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fail(fmt.Errorf("%w: reading page: %v", ErrUnavailable, err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fail(fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode))
	}

	title, desc, ok := ParsePage(string(body))
	if !ok {
		return nil, fail(ErrUnparseable)
	}
	res := &Result{
		Receipt:     num,
		Status:      Normalize(title),
		Title:       title,
		Description: desc,
		CheckedAt:   c.now(),
	}
	c.log.Debug("case status looked up", zap.String("receipt", num), zap.String("status", string(res.Status)))
	return res, nil
}

// ParsePage extracts the status title and description from a status page.
func ParsePage(page string) (title, description string, ok bool) {
	m := statusBlock.FindStringSubmatch(page)
	if m == nil {
		return "", "", false
	}
	title = clean(m[1])
	if title == "" {
		return "", "", false
	}
	return title, clean(m[2]), true
}

func clean(s string) string {
	s = tags.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}
