// client.go handles the session against the Polar Flow web service, it knows nothing
// about goals or how the numbers are presented.

package flow

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"time"

	"flowprogress/internal/components/assert"
	"flowprogress/internal/components/chrono"
	"flowprogress/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_client_fetch_login_token   = "client.fetch-login-token"
	report_client_login               = "client.login"
	report_client_fetch_yearly_report = "client.fetch-yearly-report"
)

var tracer = telemetry.Tracer("flowprogress/scrapers/flow")

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// TokenExtractor defaults to DefaultTokenExtractor().
	TokenExtractor TokenExtractor
	Clock          chrono.API
	Telemetry      telemetry.API
	// Output receives HTTP message dumps, it can be nil.
	Output telemetry.InstrumentOutput
	// CloudflareBypass wraps the transport with browser-like TLS and headers.
	CloudflareBypass bool
}

// Client is an unauthenticated connection to Flow, the only thing it can do
// is log in.
type Client struct {
	endpoints Endpoints
	http      *resty.Client
	extractor TokenExtractor
	clock     chrono.API
	tel       telemetry.API
}

func NewClient(opts ClientOptions) (*Client, error) {
	assert.NotNil(opts.Clock)
	assert.NotNil(opts.Telemetry)

	tel := telemetry.NewScopedAPI("flow_scraper", opts.Telemetry)

	endpoints, err := NewEndpoints(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	extractor := opts.TokenExtractor
	if extractor == nil {
		extractor = DefaultTokenExtractor()
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(endpoints.BaseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(endpoints.BaseUrl.Hostname()))
	httpClient.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(httpClient, tel, opts.Output)

	return &Client{
		endpoints: endpoints,
		http:      httpClient,
		extractor: extractor,
		clock:     opts.Clock,
		tel:       tel,
	}, nil
}

// FetchLoginToken requests the login page without credentials and extracts the csrf token.
func (c *Client) FetchLoginToken(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:FetchLoginToken")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.endpoints.LoginGet)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch login page")
		c.tel.ReportBroken(
			report_client_fetch_login_token,
			fmt.Errorf("fetch: %w", err),
		)
		return "", fmt.Errorf("flow scraper: fetch login page: %w", err)
	}

	token, ok := c.extractor.ExtractToken(res.Body())
	if !ok {
		err := &AuthPageFormatError{StatusCode: res.StatusCode()}
		span.SetStatus(codes.Error, "failed to find csrf token")
		c.tel.ReportBroken(report_client_fetch_login_token, err)
		return "", err
	}

	return token, nil
}

// Login submits the credentials together with a token from FetchLoginToken. The
// returned Session shares the client's cookie jar.
func (c *Client) Login(ctx context.Context, identifier, secret, token string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"csrfToken": token,
			"email":     identifier,
			"password":  secret,
			"returnURL": "/",
		}).
		Post(c.endpoints.LoginPost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		c.tel.ReportBroken(
			report_client_login,
			fmt.Errorf("login request: %w", err),
		)
		return nil, fmt.Errorf("flow scraper: login request: %w", err)
	}
	span.SetAttributes(attribute.Int("status", res.StatusCode()))

	if res.StatusCode() != http.StatusOK {
		err := &AuthenticationError{StatusCode: res.StatusCode()}
		span.SetStatus(codes.Error, err.Error())
		c.tel.ReportWarning(report_client_login, err)
		return nil, err
	}

	return &Session{client: c}, nil
}

// Authenticate is FetchLoginToken followed by Login.
func (c *Client) Authenticate(ctx context.Context, identifier, secret string) (*Session, error) {
	token, err := c.FetchLoginToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.Login(ctx, identifier, secret, token)
}

// Session is a logged in client, it can only be obtained from Client.Login.
type Session struct {
	client *Client
}
