package content

import (
	"fmt"
	"math"
	"mime"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Known field types. Anything else must be a MIME type.
const (
	FieldText     = "text"
	FieldNumber   = "number"
	FieldURL      = "url"
	FieldPassword = "password"
	FieldUsername = "username"
)

// Rule names an advisory structural rule.
type Rule string

const (
	RuleHLayoutInHLayout Rule = "hlayout-in-hlayout"
	RuleVLayoutInVLayout Rule = "vlayout-in-vlayout"
	RuleLayoutInInline   Rule = "layout-in-inline"
	RuleTableRow         Rule = "table-row-not-hlayout"
	RuleMenuChild        Rule = "menu-child"
	RuleFieldOutsideForm Rule = "field-outside-form"
	RuleFieldType        Rule = "field-type"
	RuleInsecureForm     Rule = "insecure-form"
	RuleDirective        Rule = "directive"
	RuleLiveInterval     Rule = "live-interval"
)

// Issue is a single advisory finding. Path is a slash-separated list of child
// indices from the linted root, with If branches written as then/else.
type Issue struct {
	Path    string
	Kind    Kind
	Rule    Rule
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s: %s (%s)", i.Path, i.Kind, i.Message, i.Rule)
}

var secureSchemes = map[string]struct{}{
	"https": {},
	"wss":   {},
	"hcps":  {},
}

// IsKnownFieldType reports whether t is one of the standard field types or a
// syntactically valid MIME type.
func IsKnownFieldType(t string) bool {
	switch t {
	case FieldText, FieldNumber, FieldURL, FieldPassword, FieldUsername:
		return true
	}
	if !strings.Contains(t, "/") {
		return false
	}
	_, _, err := mime.ParseMediaType(t)
	return err == nil
}

// IsSecureURL reports whether a form posting to raw keeps its values safe in
// transit: either the scheme is secure or the host is the loopback.
func IsSecureURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if _, ok := secureSchemes[strings.ToLower(u.Scheme)]; ok {
		return true
	}
	return isLoopback(u.Hostname())
}

func isLoopback(host string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// HasPasswordField reports whether any Field below c is a password field.
func HasPasswordField(c Content) bool {
	found := false
	Walk(c, func(n Content) bool {
		if f, ok := n.(Field); ok && f.Type == FieldPassword {
			found = true
		}
		return !found
	})
	return found
}

// InsecureForm reports whether clients must warn about f and block its
// submission: it holds a password field and posts to an insecure, non-loopback
// URL.
func InsecureForm(f Form) bool {
	for _, c := range f.Children {
		if HasPasswordField(c) {
			return !IsSecureURL(f.PostURL)
		}
	}
	return false
}

// Lint checks a tree against the advisory nesting rules. It never fails and
// never modifies the tree.
func Lint(root Content) []Issue {
	l := &linter{}
	l.visit(root, nil, "", false)
	return l.issues
}

// LintSequence lints the content of a File or Response, whose elements sit in
// an implicit VLayout.
func LintSequence(nodes []Content) []Issue {
	l := &linter{}
	parent := VLayout{}
	for i, n := range nodes {
		l.visit(n, parent, "/"+strconv.Itoa(i), false)
	}
	return l.issues
}

type linter struct {
	issues []Issue
}

func (l *linter) add(path string, k Kind, rule Rule, format string, args ...any) {
	if path == "" {
		path = "/"
	}
	l.issues = append(l.issues, Issue{Path: path, Kind: k, Rule: rule, Message: fmt.Sprintf(format, args...)})
}

func (l *linter) visit(c Content, parent Content, path string, inForm bool) {
	if c == nil {
		return
	}
	k := c.Kind()
	if parent != nil {
		l.checkNesting(c, parent.Kind(), path)
	}

	switch v := c.(type) {
	case If:
		l.add(path, k, RuleDirective, "unresolved templating directive on flag %q", v.Flag)
		// Branches inherit the If's parent for nesting purposes.
		l.visit(v.Then, parent, path+"/then", inForm)
		l.visit(v.Else, parent, path+"/else", inForm)
		return
	case Ctx:
		l.add(path, k, RuleDirective, "unresolved context reference %q", v.Key)
	case Include:
		l.add(path, k, RuleDirective, "unresolved include of %q", v.URL)
	case Live:
		if v.Interval <= 0 || math.IsNaN(v.Interval) || math.IsInf(v.Interval, 0) {
			l.add(path, k, RuleLiveInterval, "interval %v is not a positive finite number", v.Interval)
		}
	case Field:
		if !inForm {
			l.add(path, k, RuleFieldOutsideForm, "field %q is not inside a form", v.Name)
		}
		if !IsKnownFieldType(v.Type) {
			l.add(path, k, RuleFieldType, "field %q has unknown type %q", v.Name, v.Type)
		}
	case Form:
		if InsecureForm(v) {
			l.add(path, k, RuleInsecureForm, "password field posts to insecure url %q", v.PostURL)
		}
		inForm = true
	}

	if ct, ok := c.(Container); ok {
		for i, child := range ct.Elements() {
			l.visit(child, c, path+"/"+strconv.Itoa(i), inForm)
		}
	}
}

func (l *linter) checkNesting(c Content, parent Kind, path string) {
	k := c.Kind()
	switch parent {
	case KindHLayout:
		if k == KindHLayout {
			l.add(path, k, RuleHLayoutInHLayout, "HLayout nested directly in HLayout")
		}
	case KindVLayout:
		if k == KindVLayout {
			l.add(path, k, RuleVLayoutInVLayout, "VLayout nested directly in VLayout")
		}
	case KindInlineLayout:
		if k.IsLayout() {
			l.add(path, k, RuleLayoutInInline, "%s nested in InlineLayout", k)
		}
	case KindTable:
		if k != KindHLayout && !k.IsDirective() {
			l.add(path, k, RuleTableRow, "table row is %s, not HLayout", k)
		}
	case KindMenu:
		if k != KindText && k != KindBlob && k != KindRef && !k.IsDirective() {
			l.add(path, k, RuleMenuChild, "%s is not allowed in a menu", k)
		}
	}
}
