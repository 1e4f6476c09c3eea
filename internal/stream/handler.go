package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// pingInterval keeps idle connections alive through proxies.
const pingInterval = 30 * time.Second

// WebSocketHandler returns an http.HandlerFunc that upgrades the request and
// streams broker events as JSON text frames. Clients may filter feeds via
// ?feeds=badge,verdict and tabs via ?tab=ID.
func WebSocketHandler(broker *Broker, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		feedFilter := parseList(r.URL.Query().Get("feeds"))
		tabFilter := r.URL.Query().Get("tab")

		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		defer func() { _ = conn.Close() }()

		id, ch := broker.Subscribe()
		defer broker.Unsubscribe(id)
		logger.Debug("stream client connected", "subscriber", id, "clients", broker.ClientCount())

		var once sync.Once
		done := make(chan struct{})
		go func() {
			for {
				if _, _, err := wsutil.ReadClientData(conn); err != nil {
					once.Do(func() { close(done) })
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-done:
				return
			case evt, ok := <-ch:
				if !ok {
					return
				}
				if !Matches(evt, feedFilter, tabFilter) {
					continue
				}
				data, err := json.Marshal(evt)
				if err != nil {
					continue
				}
				if err := wsutil.WriteServerText(conn, data); err != nil {
					return
				}
			case <-ticker.C:
				if err := wsutil.WriteServerMessage(conn, ws.OpPing, nil); err != nil {
					return
				}
			}
		}
	}
}

// Matches reports whether evt passes the feed and tab filters.
// A nil feed filter or empty tab filter accepts everything.
func Matches(evt Event, feeds map[string]bool, tab string) bool {
	if feeds != nil && !feeds[evt.Feed] {
		return false
	}
	if tab != "" && evt.TabID != tab {
		return false
	}
	return true
}

func parseList(q string) map[string]bool {
	if q == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, f := range strings.Split(q, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out[f] = true
		}
	}
	return out
}
