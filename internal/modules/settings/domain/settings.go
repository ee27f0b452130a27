package domain

import (
	"errors"
	"regexp"
	"strings"

	"pomoguard/internal/modules/settings/dto"
)

const (
	DefaultFocusMinutes = dto.DefaultFocusMinutes
	DefaultBreakMinutes = dto.DefaultBreakMinutes

	MinFocusMinutes = dto.MinFocusMinutes
	MaxFocusMinutes = dto.MaxFocusMinutes
	MinBreakMinutes = dto.MinBreakMinutes
	MaxBreakMinutes = dto.MaxBreakMinutes
)

// Store keys, shared with the timer snapshot store.
const (
	KeyFocusTime     = "focusTime"
	KeyBreakTime     = "breakTime"
	KeyBlockedSites  = "blockedSites"
	KeyPomodoroCount = dto.KeyPomodoroCount
)

var ErrInvalidSite = errors.New("invalid site")

var siteRe = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)

type Settings struct {
	FocusMinutes int      `yaml:"focus_minutes"`
	BreakMinutes int      `yaml:"break_minutes"`
	BlockedSites []string `yaml:"blocked_sites"`
}

func DefaultBlockedSites() []string {
	return []string{
		"youtube.com",
		"facebook.com",
		"instagram.com",
		"tiktok.com",
		"twitter.com",
		"x.com",
		"reddit.com",
		"pinterest.com",
		"snapchat.com",
		"tumblr.com",
		"discord.com",
		"twitch.tv",
	}
}

func Defaults() Settings {
	return Settings{
		FocusMinutes: DefaultFocusMinutes,
		BreakMinutes: DefaultBreakMinutes,
		BlockedSites: DefaultBlockedSites(),
	}
}

func ClampFocus(minutes int) int {
	return dto.ClampFocus(minutes)
}

func ClampBreak(minutes int) int {
	return dto.ClampBreak(minutes)
}

// NormalizeSite turns user input such as "https://www.Reddit.com/r/golang"
// into a bare hostname ("reddit.com").
func NormalizeSite(raw string) (string, error) {
	site := strings.ToLower(strings.TrimSpace(raw))
	site = strings.TrimPrefix(site, "https://")
	site = strings.TrimPrefix(site, "http://")
	site = strings.TrimPrefix(site, "www.")
	if idx := strings.Index(site, "/"); idx >= 0 {
		site = site[:idx]
	}
	if !siteRe.MatchString(site) {
		return "", ErrInvalidSite
	}
	return site, nil
}

// NormalizeSites keeps first-seen order, drops duplicates and returns the
// raw entries that failed validation.
func NormalizeSites(raw []string) (sites []string, rejected []string) {
	seen := make(map[string]struct{}, len(raw))
	sites = make([]string, 0, len(raw))
	for _, entry := range raw {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		site, err := NormalizeSite(entry)
		if err != nil {
			rejected = append(rejected, entry)
			continue
		}
		if _, ok := seen[site]; ok {
			continue
		}
		seen[site] = struct{}{}
		sites = append(sites, site)
	}
	return sites, rejected
}

// Sanitize clamps durations and normalizes the site list.
func (s Settings) Sanitize() Settings {
	sites, _ := NormalizeSites(s.BlockedSites)
	return Settings{
		FocusMinutes: ClampFocus(s.FocusMinutes),
		BreakMinutes: ClampBreak(s.BreakMinutes),
		BlockedSites: sites,
	}
}
