package core

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"time"

	"lecturedl/lib/restyutil"
	"lecturedl/lib/retryutil"
	"lecturedl/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/moodle/core")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Client holds an authenticated (or about to be authenticated) session
// against one moodle instance.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	BaseUrl string
	// artificial delay before every request, 0 disables
	SlowMo time.Duration
	// optional transcript of every exchange, nil disables
	Transcript *restyutil.FilesystemOutput
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/moodle/http")
	if opts.SlowMo > 0 {
		slowmo := opts.SlowMo
		client.OnBeforeRequest(func(_ *resty.Client, _ *resty.Request) error {
			time.Sleep(slowmo)
			return nil
		})
	}
	if opts.Transcript != nil {
		opts.Transcript.Attach(client)
	}

	return &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}, nil
}

// FetchDocument GETs a page with bounded retries and parses the body.
// Every page load in the program goes through here, so every page load
// shares the same retry policy.
func (c *Client) FetchDocument(ctx context.Context, endpoint string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "client:FetchDocument")
	defer span.End()

	var doc *goquery.Document
	err := retryutil.Do(ctx, func() error {
		res, err := c.Http.R().
			SetContext(ctx).
			Get(endpoint)
		if err != nil {
			return err
		}
		parsed, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
		if err != nil {
			return err
		}
		doc = parsed
		return nil
	}, retryutil.Options{
		OnError: func(attempt int, err error) {
			slog.WarnContext(ctx, "failed to load page",
				"url", endpoint, "attempt", attempt, "err", err)
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch")
		return nil, err
	}
	return doc, nil
}

// Login submits the username/password form on the fixed login endpoint.
// A transport failure is an error; an unconfirmed login is only a
// warning, since the symptom the user actually cares about is the empty
// scan that follows.
func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	doc, err := c.FetchDocument(ctx, "/login/index.php")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return err
	}

	logintoken := doc.Find("input[name=logintoken]").AttrOr("value", "")
	if logintoken == "" {
		slog.WarnContext(ctx, "no login token on login page, submitting without one")
	}

	_, err = c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"logintoken": logintoken,
			"username":   username,
			"password":   password,
		}).
		Post("/login/index.php")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to submit login form")
		return err
	}

	doc, err = c.FetchDocument(ctx, "/")
	if err != nil {
		slog.WarnContext(ctx, "could not confirm login, continuing anyway", "err", err)
		return nil
	}
	if doc.Find("div.usermenu span.login").Length() > 0 {
		slog.WarnContext(ctx, "login does not appear to have succeeded, continuing anyway",
			"username", username)
		return nil
	}

	slog.InfoContext(ctx, "logged in", "username", username)
	return nil
}
