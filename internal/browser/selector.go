package browser

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Element addresses the Index-th match of Selector on the current page. It
// holds no reference to a DOM node: every use looks the element up again,
// so an Element stays meaningful across reloads as long as the page still
// has that many matches.
type Element struct {
	Selector string
	Index    int
}

func (e Element) String() string {
	return fmt.Sprintf("%s[%d]", e.Selector, e.Index)
}

// hasTextPattern matches a trailing :has-text("...") pseudo class, which is
// not CSS and has to be applied as a text filter after querySelectorAll.
var hasTextPattern = regexp.MustCompile(`^(.*):has-text\(\s*["'](.*)["']\s*\)$`)

type query struct {
	css  string
	text *string
}

func parseSelector(selector string) query {
	m := hasTextPattern.FindStringSubmatch(selector)
	if m == nil {
		return query{css: selector}
	}
	css := m[1]
	if css == "" {
		css = "*"
	}
	text := m[2]
	return query{css: css, text: &text}
}

// matchesJS is a JS function expression returning the array of elements
// matching (css, text).
const matchesJS = `(function(css, text) {
	const all = Array.from(document.querySelectorAll(css));
	if (text === null) return all;
	return all.filter(e => (e.innerText || e.textContent || '').includes(text));
})`

// countExpr returns a JS expression evaluating to the number of matches.
func (q query) countExpr() string {
	return fmt.Sprintf("%s(%s, %s).length", matchesJS, jsString(q.css), jsTextArg(q.text))
}

// markExpr returns a JS expression that tags the index-th match with
// attr=token and evaluates to true when the element exists.
func (q query) markExpr(index int, attr, token string) string {
	return fmt.Sprintf(`(function() {
	const el = %s(%s, %s)[%d];
	if (!el) return false;
	el.setAttribute(%s, %s);
	return true;
})()`, matchesJS, jsString(q.css), jsTextArg(q.text), index, jsString(attr), jsString(token))
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func jsTextArg(text *string) string {
	if text == nil {
		return "null"
	}
	return jsString(*text)
}
