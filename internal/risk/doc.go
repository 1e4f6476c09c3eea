// Package risk decides, when a password field appears, whether the path that
// led the tab to the page looks like credential phishing.
//
// The analysis is an ordered list of named rules. Each rule either returns a
// Finding, which ends the analysis, or nil to pass to the next rule. The
// default order is:
//
//  1. DirectHostRule: the host itself is on the unsafe or safe list.
//  2. PendingContextRule: the cross-domain gate left a live context for this
//     tab and host.
//  3. ChainRule: the recent navigation history shows a trusted or suspicious
//     origin.
//
// A rule error stops the analysis with an unknown verdict. A broken
// classifier or store must never produce a phishing alert.
package risk
