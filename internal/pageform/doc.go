// Package pageform finds login forms in rendered HTML.
//
// The browser event source feeds it the outer HTML of each loaded page. A
// page that contains a password input, inside or outside a <form>, is
// reported to the engine as a password page.
//
// # Usage
//
//	parser, err := pageform.NewParser(pageURL)
//	result, err := parser.Parse(strings.NewReader(outerHTML))
//	if result.HasPasswordField() { ... }
package pageform
