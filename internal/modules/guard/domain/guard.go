package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "pomoguard/internal/platform/errors"
)

const (
	BlockPath       = "/block"
	DefaultBlockURL = "http://127.0.0.1:7625" + BlockPath
)

var ErrEmptyURL = errors.New("empty url")

// SessionView is the slice of timer state the guard decides on.
type SessionView struct {
	TimeLeft int
	Running  bool
	Paused   bool
	OnBreak  bool
}

func (v SessionView) FocusActive() bool {
	return v.Running && !v.OnBreak && !v.Paused
}

type Decision struct {
	URL         string
	Host        string
	FocusActive bool
	BlockPage   bool
	Blocked     bool
	MatchedSite string
	Redirect    string
}

// NormalizeHost lowercases and strips a single leading "www.".
func NormalizeHost(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	h = strings.TrimSuffix(h, ".")
	return strings.TrimPrefix(h, "www.")
}

// HostFromURL accepts full URLs and bare "host/path" input.
func HostFromURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: %w", apperrors.ErrInvalidInput, ErrEmptyURL)
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: parse url %q: %v", apperrors.ErrInvalidInput, raw, err)
	}
	host := NormalizeHost(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("%w: url %q has no host", apperrors.ErrInvalidInput, raw)
	}
	return host, nil
}

// Matches is true for an exact host or a subdomain on a "." boundary.
func Matches(host, site string) bool {
	host = NormalizeHost(host)
	site = NormalizeHost(site)
	if host == "" || site == "" {
		return false
	}
	return host == site || strings.HasSuffix(host, "."+site)
}

func MatchSite(host string, sites []string) (string, bool) {
	for _, site := range sites {
		if Matches(host, site) {
			return site, true
		}
	}
	return "", false
}

// IsBlockPage compares scheme, host and path. Query and fragment are ignored.
func IsBlockPage(rawURL, blockURL string) bool {
	page, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	block, err := url.Parse(strings.TrimSpace(blockURL))
	if err != nil || block.Host == "" {
		return false
	}
	return strings.EqualFold(page.Scheme, block.Scheme) &&
		strings.EqualFold(page.Host, block.Host) &&
		strings.TrimSuffix(page.Path, "/") == strings.TrimSuffix(block.Path, "/")
}

// Evaluate decides one navigation. The block page itself is never blocked.
func Evaluate(rawURL string, view SessionView, sites []string, blockURL string) (Decision, error) {
	d := Decision{URL: rawURL, FocusActive: view.FocusActive()}
	if IsBlockPage(rawURL, blockURL) {
		d.BlockPage = true
		return d, nil
	}
	host, err := HostFromURL(rawURL)
	if err != nil {
		return Decision{}, err
	}
	d.Host = host
	if !d.FocusActive {
		return d, nil
	}
	if site, ok := MatchSite(host, sites); ok {
		d.Blocked = true
		d.MatchedSite = site
		d.Redirect = blockURL
	}
	return d, nil
}

// NavigationContext is one browsing context known to the guard.
type NavigationContext struct {
	ID       string
	URL      string
	LastSeen time.Time
	// RedirectedURL is the URL a redirect was last published for; it stops the
	// watcher from re-sending the same redirect every sweep.
	RedirectedURL string
}

func (c NavigationContext) Stale(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.LastSeen) > ttl
}

type Redirect struct {
	ContextID string
	From      string
	To        string
	Host      string
	Site      string
	At        time.Time
}

// BlockTitle renders "Stay Focused! | MM:SS".
func BlockTitle(timeLeft int) string {
	return "Stay Focused! | " + ClockText(timeLeft)
}

func ClockText(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
