// Package browser attaches to a running Chromium over the Chrome DevTools
// Protocol and turns its target, page and network events into engine events.
//
// Every page target is a tab; its target ID is used as the tab ID. The main
// frame of a page target shares that ID, which is how main-frame events are
// told apart from sub-frame events.
package browser
