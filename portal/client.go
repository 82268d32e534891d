package portal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	timetablePath = "/intranet/ver_horario/ver_horario.aspx"
	resolvePath   = timetablePath + "/getCodeWeekByData"
	fetchPath     = timetablePath + "/mudar_semana"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:142.0) Gecko/20100101 Firefox/142.0"

	// English short form the ASP endpoint expects, e.g. "Mon Sep 15 2025".
	weekDateFormat = "Mon Jan 02 2006"
)

// Options configure a portal Client.
type Options struct {
	BaseURL      string
	CodeUser     string
	CodeUserCode string
	Entidade     string

	// Optional HTTP basic auth in front of the portal.
	Username string
	Password string

	Timeout time.Duration
}

// Client talks to the timetable portal: one session probe plus the two
// chained RPC-style calls (date -> week code, week code -> raw payload).
type Client struct {
	http   *resty.Client
	creds  CredentialSource
	opts   Options
	logger *zap.Logger
}

func NewClient(opts Options, creds CredentialSource, logger *zap.Logger) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Entidade == "" {
		opts.Entidade = "aluno"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	hc := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout)
	if opts.Username != "" && opts.Password != "" {
		hc.SetBasicAuth(opts.Username, opts.Password)
	}

	return &Client{
		http:   hc,
		creds:  creds,
		opts:   opts,
		logger: logger,
	}
}

// headers mimics the browser request the ASP endpoints were recorded
// with; the portal rejects calls without them.
func (c *Client) headers() map[string]string {
	return map[string]string{
		"Content-Type":     "application/json; charset=utf-8",
		"X-Requested-With": "XMLHttpRequest",
		"Accept":           "application/json, text/javascript, */*; q=0.01",
		"Origin":           c.opts.BaseURL,
		"Referer":          fmt.Sprintf("%s%s?user=%s", c.opts.BaseURL, timetablePath, c.opts.CodeUser),
		"User-Agent":       userAgent,
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx).SetHeaders(c.headers())
	for name, value := range c.creds.Cookies() {
		req.SetCookie(&http.Cookie{Name: name, Value: value})
	}
	return req
}

// ProbeSession issues one lightweight authenticated request and reports
// whether the portal still accepts the configured session. One probe
// per refresh cycle, no retries; an expired session needs its cookies
// renewed externally.
func (c *Client) ProbeSession(ctx context.Context) bool {
	resp, err := c.request(ctx).
		SetQueryParam("user", c.opts.CodeUser).
		Get(timetablePath)
	if err != nil {
		c.logger.Warn("session probe failed", zap.Error(err))
		return false
	}
	if !resp.IsSuccess() {
		c.logger.Warn("session probe rejected", zap.Int("status", resp.StatusCode()))
		return false
	}
	return true
}

// ResolveWeek asks the portal for the opaque week code covering the
// given date. An empty string with a nil error means the portal knows
// no week for that date.
func (c *Client) ResolveWeek(ctx context.Context, date time.Time) (string, error) {
	var out struct {
		D *string `json:"d"`
	}
	resp, err := c.request(ctx).
		SetBody(map[string]string{"data": date.Format(weekDateFormat)}).
		SetResult(&out).
		Post(resolvePath)
	if err != nil {
		return "", &RemoteError{Endpoint: resolvePath, Err: err}
	}
	if !resp.IsSuccess() {
		return "", &RemoteError{Endpoint: resolvePath, Status: resp.StatusCode()}
	}
	if out.D == nil {
		return "", nil
	}
	return *out.D, nil
}

// FetchWeek retrieves the raw script payload for a week code. The
// returned blob embeds a JavaScript-style array of event literals and
// is handed to the extractor untouched.
func (c *Client) FetchWeek(ctx context.Context, weekCode string) (string, error) {
	var out struct {
		D string `json:"d"`
	}
	resp, err := c.request(ctx).
		SetBody(map[string]string{
			"code_week":      weekCode,
			"code_user":      c.opts.CodeUser,
			"entidade":       c.opts.Entidade,
			"code_user_code": c.opts.CodeUserCode,
		}).
		SetResult(&out).
		Post(fetchPath)
	if err != nil {
		return "", &RemoteError{Endpoint: fetchPath, Err: err}
	}
	if !resp.IsSuccess() {
		return "", &RemoteError{Endpoint: fetchPath, Status: resp.StatusCode()}
	}
	return out.D, nil
}
