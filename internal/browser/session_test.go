// internal/browser/session_test.go
package browser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocatorCSS(t *testing.T) {
	tests := []struct {
		name string
		loc  Locator
		want string
		ok   bool
	}{
		{"ID", ByID("username"), `[id="username"]`, true},
		{"IDWithQuote", ByID(`we"ird`), `[id="we\"ird"]`, true},
		{"CSS", ByCSS("div > span"), "div > span", true},
		{"AttrPrefix", ByAttrPrefix("data-cy", "stepper-"), `[data-cy^="stepper-"]`, true},
		{"XPath", ByXPath("//button"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.loc.CSS()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocatorValidate(t *testing.T) {
	assert.NoError(t, ByID("x").Validate())
	assert.NoError(t, ByXPath("//a").Validate())
	assert.NoError(t, ByAttrPrefix("data-cy", "p").Validate())

	assert.Error(t, ByCSS("").Validate())
	assert.Error(t, Locator{Strategy: StrategyAttrPrefix, Expression: "p"}.Validate())
	assert.Error(t, Locator{Strategy: "link-text", Expression: "Join"}.Validate())
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, `css(".btn")`, ByCSS(".btn").String())
	assert.Equal(t, `attr-prefix(data-cy^="step-")`, ByAttrPrefix("data-cy", "step-").String())
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(ErrNotFound))
	assert.True(t, IsTransient(fmt.Errorf("find: %w", ErrStale)))
	assert.False(t, IsTransient(ErrClickIntercepted))
	assert.False(t, IsTransient(errors.New("javascript exception")))
	assert.False(t, IsTransient(nil))
}
