// internal/browser/jsscript/jsscript.go
// Package jsscript holds the JavaScript function declarations the browser
// backends evaluate against elements. Each one is written to be called with
// the element bound to `this`.
package jsscript

import (
	"fmt"

	json "github.com/json-iterator/go"
)

// Wrapper binds a function to the element and reports detachment separately from
// the function's own result, so that a replaced node surfaces as ErrStale.
const Wrapper = `function() {
	if (!this.isConnected) { return {stale: true}; }
	const v = (%s).apply(this, arguments);
	return {stale: false, value: v === undefined ? null : v};
}`

// Wrap binds fn through Wrapper.
func Wrap(fn string) string { return fmt.Sprintf(Wrapper, fn) }

// Result is the decoded return value of a wrapped call.
type Result struct {
	Stale bool            `json:"stale"`
	Value json.RawMessage `json:"value"`
}

const IsVisible = `function() {
	const r = this.getBoundingClientRect();
	if (r.width <= 0 || r.height <= 0) { return false; }
	if (typeof this.checkVisibility === 'function') {
		return this.checkVisibility({opacityProperty: true, visibilityProperty: true});
	}
	const s = window.getComputedStyle(this);
	return s.display !== 'none' && s.visibility !== 'hidden' && s.visibility !== 'collapse' && s.opacity !== '0';
}`

const IsEnabled = `function() { return !this.matches(':disabled'); }`

const IsSelected = `function() { return !!(this.checked || this.selected); }`

// ReceivesPointer hit-tests the element's centre, scrolling it into the
// viewport first when it lies outside.
const ReceivesPointer = `function() {
	let r = this.getBoundingClientRect();
	if (r.bottom < 0 || r.right < 0 || r.top > window.innerHeight || r.left > window.innerWidth) {
		this.scrollIntoView({block: 'center', inline: 'center'});
		r = this.getBoundingClientRect();
	}
	const hit = document.elementFromPoint(r.left + r.width / 2, r.top + r.height / 2);
	return !!hit && (hit === this || this.contains(hit));
}`

const Value = `function() { return this.value == null ? '' : String(this.value); }`

const Text = `function() { return this.innerText || this.textContent || ''; }`

const Focus = `function() { this.focus(); return null; }`

// Clear empties the control through the native value setter so framework
// bindings observe the input event.
const Clear = `function() {
	this.focus();
	const proto = Object.getPrototypeOf(this);
	const desc = Object.getOwnPropertyDescriptor(proto, 'value');
	if (desc && desc.set) { desc.set.call(this, ''); } else { this.value = ''; }
	this.dispatchEvent(new Event('input', {bubbles: true}));
	this.dispatchEvent(new Event('change', {bubbles: true}));
	return null;
}`

const Options = `function() {
	return Array.from(this.options || []).map(o => ({value: o.value, text: (o.text || '').trim(), selected: o.selected}));
}`

// Attribute returns {ok, v} for the attribute named by its first argument.
func Attribute(name string) string {
	return fmt.Sprintf(`function() {
	const n = %s;
	return this.hasAttribute(n) ? {ok: true, v: this.getAttribute(n)} : {ok: false, v: ''};
}`, Literal(name))
}

// Select selects the first option whose value (byText=false) or trimmed
// text (byText=true) equals want and fires input and change. It reports
// whether an option matched.
func Select(want string, byText bool) string {
	return fmt.Sprintf(`function() {
	const want = %s, byText = %t;
	const opts = Array.from(this.options || []);
	const i = opts.findIndex(o => byText ? (o.text || '').trim() === want : o.value === want);
	if (i < 0) { return false; }
	this.selectedIndex = i;
	this.dispatchEvent(new Event('input', {bubbles: true}));
	this.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
}`, Literal(want), byText)
}

// Literal encodes s as a JavaScript string literal.
func Literal(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
