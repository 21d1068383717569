package vdom

import "strings"

// attr creates a fixed Attr with the given key and value.
func attr(key string, value any) Attr {
	return Attr{Key: key, Value: propToString(value)}
}

// Attribute creates a fixed attribute with an arbitrary key.
func Attribute(key string, value any) Attr { return attr(key, value) }

// Dyn marks an attribute as dynamic: it is rewritten on every pass in which
// its value changed.
func Dyn(a Attr) Attr {
	a.Dynamic = true
	return a
}

// ID sets the id attribute.
func ID(id string) Attr { return attr("id", id) }

// Class sets the class attribute, joining multiple classes with spaces.
func Class(classes ...string) Attr { return attr("class", strings.Join(classes, " ")) }

// StyleAttr sets the style attribute.
func StyleAttr(style string) Attr { return attr("style", style) }

// Data creates a data-* attribute.
// Example: Data("id", "123") → data-id="123"
func Data(key, value string) Attr { return attr("data-"+key, value) }

// Role sets the role attribute.
func Role(role string) Attr { return attr("role", role) }

// AriaLabel sets the aria-label attribute.
func AriaLabel(label string) Attr { return attr("aria-label", label) }

// Type sets the type attribute.
func Type(t string) Attr { return attr("type", t) }

// Value sets the value attribute.
func Value(v any) Attr { return attr("value", v) }

// Placeholder sets the placeholder attribute.
func Placeholder(p string) Attr { return attr("placeholder", p) }

// Href sets the href attribute.
func Href(url string) Attr { return attr("href", url) }

// Checked sets the checked attribute.
func Checked(checked bool) Attr { return attr("checked", checked) }

// Disabled sets the disabled attribute.
func Disabled(disabled bool) Attr { return attr("disabled", disabled) }
