package portal

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/codit04/TechMCP/internal/config"
	"github.com/codit04/TechMCP/internal/observability"
)

// Constants for default optimized TCP/HTTP settings.
const (
	defaultDialTimeout           = 5 * time.Second
	defaultKeepAliveInterval     = 15 * time.Second
	defaultTLSHandshakeTimeout   = 5 * time.Second
	defaultResponseHeaderTimeout = 10 * time.Second

	defaultMaxIdleConns    = 10
	defaultIdleConnTimeout = 30 * time.Second

	// The portal rejects requests without a browser-looking User-Agent.
	userAgent = "Mozilla/5.0"

	csrfFieldName = "__RequestVerificationToken"

	maxResponseBytes = 8 << 20
)

// Markers used to classify an ambiguous post-login page. The portal returns
// HTTP 200 for both outcomes, so when the redirect target is inconclusive we
// count indicators the way a human squinting at the page would.
var (
	successIndicators = []string{
		"main menu", "profile", "logout", "welcome",
		"continuous assessment", "ca marks", "breadcrumb",
	}
	failureIndicators = []string{
		"student login", "rollno", "password", "forgot password",
		"invalid", "incorrect", "error", "login failed",
		"terms & conditions", "staff", "parent",
	}
)

// Client is the authenticated HTTP client for the e-campus portal. It owns
// the session cookie jar and re-authenticates transparently when the portal
// expires the session.
//
// A single Client is shared by every scraper; all methods are safe for
// concurrent use. Login is single-flighted so concurrent callers that hit an
// expired session trigger exactly one re-authentication.
type Client struct {
	cfg    config.PortalConfig
	http   *http.Client
	logger *zap.Logger

	mu         sync.Mutex
	sessionGen uint64 // bumped on every successful login
}

// New builds a portal client from the configuration. The returned client has
// not logged in yet; the first page fetch authenticates lazily.
func New(cfg config.PortalConfig, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = observability.GetLogger().Named("portal")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		cfg:    cfg,
		logger: logger,
		http: &http.Client{
			Transport: newTransport(),
			Jar:       jar,
			Timeout:   timeout,
			// Redirects are followed deliberately: login success is detected
			// by the post-login redirect to /Home/Menu.
		},
	}, nil
}

// newTransport configures an http.Transport tuned for a single-host,
// low-volume scraping workload.
func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   defaultDialTimeout,
		KeepAlive: defaultKeepAliveInterval,
	}
	return &http.Transport{
		DialContext:           dialer.DialContext,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
		ResponseHeaderTimeout: defaultResponseHeaderTimeout,
		MaxIdleConns:          defaultMaxIdleConns,
		IdleConnTimeout:       defaultIdleConnTimeout,
		ForceAttemptHTTP2:     true,
	}
}

// BaseURL returns the configured portal root.
func (c *Client) BaseURL() string {
	return strings.TrimRight(c.cfg.BaseURL, "/")
}

// Login authenticates against the portal and establishes a session cookie.
// It is safe to call concurrently; only one login runs at a time.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loginLocked(ctx)
}

// loginLocked performs the CSRF-token form login. Caller must hold c.mu.
func (c *Client) loginLocked(ctx context.Context) error {
	c.logger.Info("Logging in to portal", zap.String("roll_number", c.cfg.RollNumber))

	loginURL := c.BaseURL()

	page, _, err := c.fetch(ctx, http.MethodGet, loginURL, nil)
	if err != nil {
		observability.PortalLogins.WithLabelValues("unreachable").Inc()
		return fmt.Errorf("fetching login page: %w", err)
	}

	token, err := extractCSRFToken(page)
	if err != nil {
		observability.PortalLogins.WithLabelValues("failure").Inc()
		return err
	}

	form := url.Values{
		"rollno":      {strings.ToUpper(c.cfg.RollNumber)},
		"password":    {c.cfg.Password},
		csrfFieldName: {token},
		"chkterms":    {"on"},
	}

	body, finalURL, err := c.fetch(ctx, http.MethodPost, loginURL, strings.NewReader(form.Encode()))
	if err != nil {
		observability.PortalLogins.WithLabelValues("unreachable").Inc()
		return fmt.Errorf("posting login form: %w", err)
	}

	if !loginSucceeded(body, finalURL) {
		observability.PortalLogins.WithLabelValues("failure").Inc()
		c.logger.Warn("Portal login rejected", zap.String("final_url", finalURL.String()))
		return fmt.Errorf("%w: check roll number and password", ErrAuth)
	}

	c.sessionGen++
	observability.PortalLogins.WithLabelValues("success").Inc()
	c.logger.Info("Portal login successful")
	return nil
}

// ensureSession logs in if no session has been established yet and returns
// the generation of the session the caller is about to use.
func (c *Client) ensureSession(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionGen == 0 {
		if err := c.loginLocked(ctx); err != nil {
			return 0, err
		}
	}
	return c.sessionGen, nil
}

// renewSession re-authenticates after an expiry, unless another goroutine
// already did so since the caller obtained gen.
func (c *Client) renewSession(ctx context.Context, gen uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionGen != gen {
		// Someone else renewed already; reuse their session.
		return nil
	}
	return c.loginLocked(ctx)
}

// Page fetches an authenticated portal page by path (relative to the base
// URL) and returns its HTML. If the portal answers with the login page, the
// session has expired: the client re-authenticates exactly once and retries
// the original request once.
func (c *Client) Page(ctx context.Context, path string) ([]byte, error) {
	gen, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	pageURL := c.BaseURL() + "/" + strings.TrimLeft(path, "/")

	start := time.Now()
	defer func() {
		observability.PortalFetchDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	}()

	body, finalURL, err := c.fetch(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}

	if !looksLikeLoginPage(body, finalURL) {
		return body, nil
	}

	c.logger.Info("Session expired, re-authenticating", zap.String("page", path))
	if err := c.renewSession(ctx, gen); err != nil {
		return nil, err
	}

	body, finalURL, err = c.fetch(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if looksLikeLoginPage(body, finalURL) {
		return nil, fmt.Errorf("%w: still on login page after re-authentication (%s)", ErrSessionExpired, path)
	}
	return body, nil
}

// fetch performs a single HTTP request and returns the body together with the
// final URL after redirects.
func (c *Client) fetch(ctx context.Context, method, rawURL string, form io.Reader) ([]byte, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, form)
	if err != nil {
		return nil, nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if method == http.MethodPost {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading response from %s: %v", ErrUnreachable, rawURL, err)
	}

	if resp.StatusCode >= 500 {
		return nil, nil, fmt.Errorf("%w: %s returned HTTP %d", ErrUnreachable, rawURL, resp.StatusCode)
	}

	c.logger.Debug("Portal response",
		zap.String("method", method),
		zap.String("url", resp.Request.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)))

	return body, resp.Request.URL, nil
}

// extractCSRFToken pulls the anti-forgery token out of the login form.
func extractCSRFToken(page []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("%w: parsing login page: %v", ErrPageStructure, err)
	}
	token, ok := doc.Find(fmt.Sprintf("input[name=%s]", csrfFieldName)).Attr("value")
	if !ok || token == "" {
		return "", fmt.Errorf("%w: login page has no %s field", ErrPageStructure, csrfFieldName)
	}
	return token, nil
}

// loginSucceeded decides whether the post-login response represents an
// authenticated session.
func loginSucceeded(body []byte, finalURL *url.URL) bool {
	if finalURL != nil && strings.Contains(finalURL.Path, "/Home/Menu") {
		return true
	}

	text := strings.ToLower(string(body))
	success, failure := 0, 0
	for _, marker := range successIndicators {
		if strings.Contains(text, marker) {
			success++
		}
	}
	for _, marker := range failureIndicators {
		if strings.Contains(text, marker) {
			failure++
		}
	}
	return success > failure
}

// looksLikeLoginPage detects a silent bounce back to the login screen, which
// is how the portal signals an expired session.
func looksLikeLoginPage(body []byte, finalURL *url.URL) bool {
	if finalURL != nil && finalURL.Path != "" {
		p := strings.TrimRight(finalURL.Path, "/")
		if strings.HasSuffix(p, "/studzone") || strings.HasSuffix(strings.ToLower(p), "/login") {
			return true
		}
	}
	if bytes.Contains(body, []byte(csrfFieldName)) {
		return strings.Contains(strings.ToLower(string(body)), "student login")
	}
	return false
}
