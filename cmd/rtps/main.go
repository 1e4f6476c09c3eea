// Package main provides the entry point for the rtps CLI.
//
// rtps watches browser navigation and warns when a password page is reached
// by a cross-domain hop from a trusted site.
//
// Usage:
//
//	rtps serve
//	rtps check <host-or-url>
//	rtps detections --markdown
//
// See --help for all available options.
package main

// main is the entry point for rtps.
func main() {
	Execute()
}
