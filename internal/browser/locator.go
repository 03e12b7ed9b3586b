// internal/browser/locator.go
package browser

import (
	"fmt"
	"strings"
)

// Strategy names how a Locator's expression is interpreted by the driver.
type Strategy string

const (
	StrategyID         Strategy = "id"
	StrategyCSS        Strategy = "css"
	StrategyXPath      Strategy = "xpath"
	StrategyAttrPrefix Strategy = "attr-prefix"
)

// Locator is an immutable description of how to find elements in the current
// document. It is pure data: it holds no live handle and says nothing about how
// many elements it is expected to match. Call sites decide that.
type Locator struct {
	Strategy   Strategy `json:"strategy"`
	Expression string   `json:"expression"`
	// Attribute is only used by StrategyAttrPrefix, where Expression is the prefix.
	Attribute string `json:"attribute,omitempty"`
}

// ByID locates elements by their id attribute.
func ByID(id string) Locator { return Locator{Strategy: StrategyID, Expression: id} }

// ByCSS locates elements with a CSS selector.
func ByCSS(selector string) Locator { return Locator{Strategy: StrategyCSS, Expression: selector} }

// ByXPath locates elements with an XPath expression.
func ByXPath(expr string) Locator { return Locator{Strategy: StrategyXPath, Expression: expr} }

// ByAttrPrefix locates elements whose attribute value starts with prefix,
// e.g. ByAttrPrefix("data-cy", "quickregisterstep-").
func ByAttrPrefix(attribute, prefix string) Locator {
	return Locator{Strategy: StrategyAttrPrefix, Attribute: attribute, Expression: prefix}
}

// CSS renders the locator as a CSS selector. XPath locators cannot be
// expressed in CSS and report ok=false.
func (l Locator) CSS() (selector string, ok bool) {
	switch l.Strategy {
	case StrategyCSS:
		return l.Expression, true
	case StrategyID:
		return "[id=" + cssString(l.Expression) + "]", true
	case StrategyAttrPrefix:
		return "[" + l.Attribute + "^=" + cssString(l.Expression) + "]", true
	default:
		return "", false
	}
}

// Validate reports whether the locator is well formed.
func (l Locator) Validate() error {
	if l.Expression == "" {
		return fmt.Errorf("locator %s has an empty expression", l.Strategy)
	}
	switch l.Strategy {
	case StrategyID, StrategyCSS, StrategyXPath:
		return nil
	case StrategyAttrPrefix:
		if l.Attribute == "" {
			return fmt.Errorf("attr-prefix locator %q is missing the attribute name", l.Expression)
		}
		return nil
	default:
		return fmt.Errorf("unknown locator strategy %q", l.Strategy)
	}
}

// String is the diagnostic form used in logs and error messages.
func (l Locator) String() string {
	if l.Strategy == StrategyAttrPrefix {
		return fmt.Sprintf("attr-prefix(%s^=%q)", l.Attribute, l.Expression)
	}
	return fmt.Sprintf("%s(%q)", l.Strategy, l.Expression)
}

var cssEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// cssString quotes s as a CSS string literal.
func cssString(s string) string {
	return `"` + cssEscaper.Replace(s) + `"`
}
