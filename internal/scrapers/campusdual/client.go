package campusdual

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"campusdual-backend/internal/components/assert"
	"campusdual-backend/internal/components/telemetry"
	"campusdual-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	report_client_fetch = "client.fetch"
)

const (
	DefaultBaseUrl = "https://selfservice.campus-dual.de"

	gradesPath  = "/acwork/index"
	signupPath  = "/acwork/expproc"
	signoffPath = "/acwork/exopen"

	// transientRetries is the number of retries when retrying is enabled.
	transientRetries = 2
)

var tracer = otel.Tracer("campusdual-backend/internal/scrapers/campusdual")

// SessionCookie is the serialized form of the portal's session cookie.
type SessionCookie struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain,omitempty"`
	Path   string `json:"path,omitempty"`
}

// storedCookie is the cookie store format sessions were sealed in before SessionCookie,
// only its Set-Cookie line is read, domain and path are taken from its attributes.
type storedCookie struct {
	RawCookie string `json:"raw_cookie"`
}

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// RootCertPEM is the only root certificate the client trusts, required.
	RootCertPEM string
	// Retry enables retrying transport errors, 429 and 5xx responses with exponential backoff.
	Retry bool
	// Cookie is a serialized SessionCookie, empty for an anonymous client.
	Cookie string
	// RequestsPerSecond defaults to 2.
	RequestsPerSecond float64
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
	// Dump receives every fetched page and exchange when set.
	Dump restyutil.Output
}

// Client fetches portal pages and extracts them.
type Client struct {
	http      *resty.Client
	extractor Extractor
	tel       telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel, "tel")
	assert.NotEmptyStr(opts.RootCertPEM, "root certificate")

	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	scoped := telemetry.NewScopedAPI("campusdual_client", tel)

	httpClient := resty.New()
	httpClient.SetBaseURL(opts.BaseUrl)
	httpClient.SetTimeout(opts.Timeout)
	httpClient.SetRootCertificateFromString(opts.RootCertPEM)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if opts.Cookie != "" {
		cookie, err := decodeSessionCookie(opts.Cookie)
		if err != nil {
			return nil, err
		}
		jar.SetCookies(baseUrl, []*http.Cookie{cookie})
	}
	httpClient.SetCookieJar(jar)

	if opts.Retry {
		httpClient.
			SetRetryCount(transientRetries).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second).
			AddRetryCondition(isTransient)
	}

	// burst matches the rate so that no request is ever dropped
	burst := max(int(opts.RequestsPerSecond), 1)
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, scoped)
	if opts.Dump != nil {
		restyutil.Dump(httpClient, opts.Dump)
	}

	return &Client{
		http:      httpClient,
		extractor: NewExtractor(tel),
		tel:       scoped,
	}, nil
}

func decodeSessionCookie(serialized string) (*http.Cookie, error) {
	var stored storedCookie
	err := json.Unmarshal([]byte(serialized), &stored)
	if err != nil {
		return nil, fmt.Errorf("decode session cookie: %w", err)
	}
	if stored.RawCookie != "" {
		return parseRawCookie(stored.RawCookie)
	}

	var session SessionCookie
	err = json.Unmarshal([]byte(serialized), &session)
	if err != nil {
		return nil, fmt.Errorf("decode session cookie: %w", err)
	}
	if session.Name == "" {
		return nil, fmt.Errorf("decode session cookie: missing name")
	}
	path := session.Path
	if path == "" {
		path = "/"
	}
	return &http.Cookie{
		Name:   session.Name,
		Value:  session.Value,
		Domain: session.Domain,
		Path:   path,
	}, nil
}

func parseRawCookie(raw string) (*http.Cookie, error) {
	res := http.Response{Header: http.Header{"Set-Cookie": {raw}}}
	cookies := res.Cookies()
	if len(cookies) == 0 {
		return nil, fmt.Errorf("decode session cookie: invalid raw cookie %q", raw)
	}
	cookie := cookies[0]
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return cookie, nil
}

func isTransient(res *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	status := res.StatusCode()
	return status == http.StatusTooManyRequests || status >= http.StatusInternalServerError
}

// fetch returns the body of a portal page, any non-2xx response is an error.
func (c *Client) fetch(ctx context.Context, path string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "fetch")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		err = fmt.Errorf("fetch %s: %w", path, err)
		c.tel.ReportBroken(report_client_fetch, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if res.IsError() {
		err = fmt.Errorf("fetch %s: unexpected status %s", path, res.Status())
		c.tel.ReportBroken(report_client_fetch, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("bytes", len(res.Body())))
	return res.Body(), nil
}

// Grades fetches and extracts the grades page.
func (c *Client) Grades(ctx context.Context) ([]Grade, error) {
	body, err := c.fetch(ctx, gradesPath)
	if err != nil {
		return nil, err
	}
	return c.extractor.Grades(bytes.NewReader(body)), nil
}

// SignupOptions fetches and extracts the exam registration page.
func (c *Client) SignupOptions(ctx context.Context) ([]SignupOption, error) {
	body, err := c.fetch(ctx, signupPath)
	if err != nil {
		return nil, err
	}
	return c.extractor.SignupOptions(bytes.NewReader(body)), nil
}

// SignoffOptions fetches and extracts the exam withdrawal page.
func (c *Client) SignoffOptions(ctx context.Context) ([]SignoffOption, error) {
	body, err := c.fetch(ctx, signoffPath)
	if err != nil {
		return nil, err
	}
	return c.extractor.SignoffOptions(bytes.NewReader(body)), nil
}

// Overview is every page of the portal extracted at one point in time.
type Overview struct {
	Grades  []Grade         `json:"grades"`
	Signup  []SignupOption  `json:"signup"`
	Signoff []SignoffOption `json:"signoff"`
}

// Overview fetches the grades, registration and withdrawal pages concurrently, the first
// failed fetch cancels the others.
func (c *Client) Overview(ctx context.Context) (Overview, error) {
	var overview Overview

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		grades, err := c.Grades(egCtx)
		overview.Grades = grades
		return err
	})
	eg.Go(func() error {
		signup, err := c.SignupOptions(egCtx)
		overview.Signup = signup
		return err
	})
	eg.Go(func() error {
		signoff, err := c.SignoffOptions(egCtx)
		overview.Signoff = signoff
		return err
	})

	err := eg.Wait()
	if err != nil {
		return Overview{}, err
	}
	return overview, nil
}
