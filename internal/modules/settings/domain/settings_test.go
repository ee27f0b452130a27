package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomoguard/internal/modules/settings/domain"
)

func TestNormalizeSite(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"reddit.com":                      "reddit.com",
		"  Reddit.COM ":                   "reddit.com",
		"https://www.youtube.com/watch?v=1": "youtube.com",
		"http://old.reddit.com/r/golang":  "old.reddit.com",
		"www.twitch.tv":                   "twitch.tv",
	}
	for in, want := range cases {
		got, err := domain.NormalizeSite(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"localhost", "not a site", "reddit.c", "ftp://x", ""} {
		_, err := domain.NormalizeSite(bad)
		assert.ErrorIs(t, err, domain.ErrInvalidSite, bad)
	}
}

func TestNormalizeSitesDedupesAndReportsRejected(t *testing.T) {
	t.Parallel()
	sites, rejected := domain.NormalizeSites([]string{"reddit.com", "www.reddit.com", "bogus", "x.com", " "})
	assert.Equal(t, []string{"reddit.com", "x.com"}, sites)
	assert.Equal(t, []string{"bogus"}, rejected)
}

func TestClamp(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, domain.ClampFocus(-5))
	assert.Equal(t, 60, domain.ClampFocus(90))
	assert.Equal(t, 25, domain.ClampFocus(25))
	assert.Equal(t, 1, domain.ClampBreak(0))
	assert.Equal(t, 30, domain.ClampBreak(31))
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	d := domain.Defaults()
	assert.Equal(t, 25, d.FocusMinutes)
	assert.Equal(t, 5, d.BreakMinutes)
	assert.Len(t, d.BlockedSites, 12)
	assert.Contains(t, d.BlockedSites, "twitch.tv")
	assert.Equal(t, d, d.Sanitize())
}
