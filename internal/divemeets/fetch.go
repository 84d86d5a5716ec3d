package divemeets

import (
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"diveanalytics-backend/internal/config"
	"diveanalytics-backend/internal/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/purell"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const report_session_fetch = "session.fetch"

var defaultHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.5",
	"Upgrade-Insecure-Requests": "1",
}

// FetchError is returned for a request that timed out, failed in transport
// or came back with a non-2xx status. StatusCode is 0 when no response was
// received.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client holds the site configuration shared by every Session.
type Client struct {
	baseUrl *url.URL
	site    config.Site
	tel     telemetry.API
	output  telemetry.MessageOutput
}

// NewClient creates a Client for the site, output may be nil.
func NewClient(site config.Site, tel telemetry.API, output telemetry.MessageOutput) (*Client, error) {
	base := site.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", site.BaseURL)
	}
	site.BaseURL = base
	return &Client{
		baseUrl: parsed,
		site:    site,
		tel:     tel,
		output:  output,
	}, nil
}

// Resolve turns a page reference into an absolute url. Relative references
// are appended to the base url with any leading slash removed.
func (c *Client) Resolve(target string) (string, error) {
	ref, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", target, err)
	}
	full := target
	if !ref.IsAbs() {
		full = c.site.BaseURL + strings.TrimLeft(target, "/")
	}
	normalized, err := purell.NormalizeURLString(full, purell.FlagsSafe|purell.FlagRemoveFragment)
	if err != nil {
		return "", fmt.Errorf("normalize %q: %w", full, err)
	}
	return normalized, nil
}

// Session is a cookie and connection context for the requests of a single
// diver.
type Session struct {
	client *Client
	http   *resty.Client
}

// NewSession creates a Session with its own cookie jar.
func (c *Client) NewSession() (*Session, error) {
	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if c.site.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", c.site.UserAgent)
	httpClient.SetHeaders(defaultHeaders)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.baseUrl.Hostname()))
	httpClient.SetTimeout(c.site.Timeout())

	telemetry.InstrumentResty(httpClient, c.tel, c.output)

	return &Session{client: c, http: httpClient}, nil
}

// Fetch GETs target and returns the body text. referer is sent as the
// Referer header when non-empty. Requests are never retried.
func (s *Session) Fetch(ctx context.Context, target, referer string) (string, error) {
	ctx, span := tracer.Start(ctx, "Session.Fetch")
	defer span.End()

	full, err := s.client.Resolve(target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid target")
		return "", &FetchError{URL: target, Err: err}
	}
	span.SetAttributes(attribute.String("url", full))

	req := s.http.R().SetContext(ctx)
	if referer != "" {
		refererUrl, err := s.client.Resolve(referer)
		if err != nil {
			refererUrl = referer
		}
		req.SetHeader("Referer", refererUrl)
	}

	res, err := req.Get(full)
	if err != nil {
		s.client.tel.ReportDebug(report_session_fetch, full, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return "", &FetchError{URL: full, Err: err}
	}
	if !res.IsSuccess() {
		err := &FetchError{
			URL:        full,
			StatusCode: res.StatusCode(),
			Err:        errors.New(res.Status()),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "non-2xx status")
		return "", err
	}
	return res.String(), nil
}
