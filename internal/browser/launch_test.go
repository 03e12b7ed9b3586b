// internal/browser/launch_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func flagStrings(flags []Flag) []string {
	out := make([]string, len(flags))
	for i, f := range flags {
		out[i] = f.String()
	}
	return out
}

func TestChromeFlags(t *testing.T) {
	t.Run("Headless", func(t *testing.T) {
		got := flagStrings(LaunchOptions{Headless: true}.ChromeFlags())
		assert.Equal(t, []string{
			"--headless=new",
			"--window-size=1400,900",
			"--disable-gpu",
			"--no-sandbox",
			"--disable-dev-shm-usage",
		}, got)
	})

	t.Run("Headed", func(t *testing.T) {
		got := flagStrings(LaunchOptions{Headless: false}.ChromeFlags())
		assert.Equal(t, []string{"--start-maximized"}, got)
		assert.NotContains(t, got, "--no-sandbox")
	})

	t.Run("CustomWindowAndArgs", func(t *testing.T) {
		opts := LaunchOptions{
			Headless:     true,
			WindowWidth:  1920,
			WindowHeight: 1080,
			Args:         []string{"--lang=fr-CA", "mute-audio", "  ", "--"},
		}
		got := flagStrings(opts.ChromeFlags())
		assert.Contains(t, got, "--window-size=1920,1080")
		assert.Contains(t, got, "--lang=fr-CA")
		assert.Contains(t, got, "--mute-audio")
		assert.Len(t, got, 7)
	})
}

func TestParseFlag(t *testing.T) {
	f, ok := ParseFlag("--user-agent=qa bot")
	assert.True(t, ok)
	assert.Equal(t, Flag{Name: "user-agent", Value: "qa bot"}, f)

	f, ok = ParseFlag("-incognito")
	assert.True(t, ok)
	assert.Equal(t, Flag{Name: "incognito", Value: true}, f)

	_, ok = ParseFlag("")
	assert.False(t, ok)
}
