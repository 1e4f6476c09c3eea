package pageform

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// HTML element name constants for form field detection.
const (
	htmlElementInput    = "input"
	htmlElementSelect   = "select"
	htmlElementTextarea = "textarea"

	inputTypePassword = "password"
)

// Parser extracts forms from HTML content.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because login pages are often malformed and a tokenizer that
// follows the HTML5 parsing algorithm sees the same tree the browser does.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving form actions.
	baseURL *url.URL
}

// Result is what a single parsing pass found.
type Result struct {
	// Title is the page title from <title> tag.
	Title string

	// Forms contains information about HTML forms.
	Forms []Form

	// PasswordFields counts password inputs anywhere in the document,
	// including ones rendered outside a <form>.
	PasswordFields int
}

// Form contains information about an HTML form.
type Form struct {
	// Action is the resolved form action URL. An empty action resolves to
	// the page URL.
	Action string

	// Method is the HTTP method (GET, POST).
	Method string

	// Fields contains form fields in document order.
	Fields []Field
}

// Field represents a form input field.
type Field struct {
	// Name is the field name attribute. It may be empty.
	Name string

	// Type is the input type (text, password, hidden, etc.).
	Type string
}

// NewParser creates a new HTML parser with the given base URL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts its forms.
func (p *Parser) Parse(content io.Reader) (*Result, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &Result{Forms: make([]Form, 0)}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "form":
				form := Form{
					Action: p.resolveURL(getAttr(n, "action")),
					Method: strings.ToUpper(getAttr(n, "method")),
					Fields: make([]Field, 0),
				}
				if form.Method == "" {
					form.Method = "GET"
				}
				extractFields(n, &form)
				result.Forms = append(result.Forms, form)
			case htmlElementInput:
				if isPasswordInput(n) {
					result.PasswordFields++
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// HasPasswordField reports whether the page renders a password input.
func (r *Result) HasPasswordField() bool {
	return r.PasswordFields > 0
}

// LoginForms returns the forms that contain a password field.
func (r *Result) LoginForms() []Form {
	var out []Form
	for _, f := range r.Forms {
		if f.HasPasswordField() {
			out = append(out, f)
		}
	}
	return out
}

// HasPasswordField reports whether the form contains a password field.
func (f Form) HasPasswordField() bool {
	for _, field := range f.Fields {
		if field.Type == inputTypePassword {
			return true
		}
	}
	return false
}

// extractFields recursively extracts fields from a form element.
func extractFields(n *html.Node, form *Form) {
	if n.Type == html.ElementNode && (n.Data == htmlElementInput || n.Data == htmlElementSelect || n.Data == htmlElementTextarea) {
		field := Field{
			Name: getAttr(n, "name"),
			Type: strings.ToLower(getAttr(n, "type")),
		}
		if field.Type == "" {
			switch n.Data {
			case htmlElementTextarea:
				field.Type = htmlElementTextarea
			case htmlElementSelect:
				field.Type = htmlElementSelect
			default:
				field.Type = "text"
			}
		}
		form.Fields = append(form.Fields, field)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractFields(c, form)
	}
}

func isPasswordInput(n *html.Node) bool {
	return strings.EqualFold(strings.TrimSpace(getAttr(n, "type")), inputTypePassword)
}

// resolveURL resolves a form action against the base URL. Script actions
// resolve to the empty string.
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(u).String()
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
