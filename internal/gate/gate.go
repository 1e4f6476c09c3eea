// Package gate implements the proactive cross-domain check that runs on every
// committed navigation that was not typed by the user.
//
// The gate only tracks navigations that originate from a trusted site. When
// such a navigation lands on an unknown site, it stores a pending context so
// that a password field appearing there later is reported as phishing.
package gate

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/rtps/internal/classifier"
	"github.com/nao1215/rtps/internal/model"
	"github.com/nao1215/rtps/internal/notify"
	"github.com/nao1215/rtps/internal/provenance"
)

// Outcome is what the gate decided for a navigation.
type Outcome int

const (
	// OutcomeSkipped means the gate did nothing: disabled, or no cross-domain
	// provenance was found.
	OutcomeSkipped Outcome = iota
	// OutcomeUntrustedSource means the source is not on the safe list.
	OutcomeUntrustedSource
	// OutcomeSafeDestination means both ends are trusted.
	OutcomeSafeDestination
	// OutcomeUnsafeDestination means a trusted site led to an unsafe one.
	OutcomeUnsafeDestination
	// OutcomePending means a context was stored for an unknown destination.
	OutcomePending
	// OutcomeUnavailable means classification failed and the gate backed off.
	OutcomeUnavailable
	// OutcomeStale means the tab left the destination while it was being
	// classified, so nothing was stored.
	OutcomeStale
)

// String returns a short name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeUntrustedSource:
		return "untrusted-source"
	case OutcomeSafeDestination:
		return "safe-destination"
	case OutcomeUnsafeDestination:
		return "unsafe-destination"
	case OutcomePending:
		return "pending"
	case OutcomeUnavailable:
		return "unavailable"
	case OutcomeStale:
		return "stale"
	default:
		return "skipped"
	}
}

// Navigation is a committed, non-typed, main-frame navigation.
type Navigation struct {
	TabID           model.TabID
	DestinationHost string
	DestinationURL  string
	Transition      model.TransitionKind
	IsRedirect      bool

	// Previous is the tab's history tail before this commit, or nil.
	Previous *model.NavigationEntry

	Settings model.Settings
	Now      time.Time
}

// Result describes what the gate did.
type Result struct {
	Outcome    Outcome
	Provenance provenance.Provenance
	Context    *model.CrossDomainContext
}

// Contexts is the write side of the pending context map.
type Contexts interface {
	// PutContextIfCurrent stores c unless the tab has since navigated away
	// from c.DestinationHost.
	PutContextIfCurrent(c model.CrossDomainContext) bool
	ClearContext(tab model.TabID)
}

// Effects receives badge and notification side effects.
type Effects interface {
	SetBadge(ctx context.Context, tab model.TabID, status model.BadgeStatus)
	Notify(ctx context.Context, settings model.Settings, n notify.Notification)
}

// Gate runs the cross-domain check.
type Gate struct {
	resolver *provenance.Resolver
	checker  classifier.Checker
	contexts Contexts
	effects  Effects
	logger   *slog.Logger
}

// New creates a Gate.
func New(resolver *provenance.Resolver, checker classifier.Checker, contexts Contexts, effects Effects, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		resolver: resolver,
		checker:  checker,
		contexts: contexts,
		effects:  effects,
		logger:   logger,
	}
}

// Check runs the gate for nav. It never returns an error: classifier
// failures clear any pending context and end the check.
func (g *Gate) Check(ctx context.Context, nav Navigation) Result {
	if !nav.Settings.Enabled {
		return Result{Outcome: OutcomeSkipped}
	}

	prov, ok := g.resolver.Resolve(nav.TabID, nav.DestinationHost, nav.Previous)
	if !ok {
		g.logger.Debug("no cross-domain provenance", "tab", nav.TabID, "host", nav.DestinationHost)
		return Result{Outcome: OutcomeSkipped}
	}
	res := Result{Provenance: prov}

	source, err := g.checker.Check(ctx, prov.Host)
	if err != nil {
		g.logger.Warn("source classification failed", "tab", nav.TabID, "source", prov.Host, "error", err)
		g.contexts.ClearContext(nav.TabID)
		res.Outcome = OutcomeUnavailable
		return res
	}
	if !source.IsSafe {
		g.contexts.ClearContext(nav.TabID)
		res.Outcome = OutcomeUntrustedSource
		return res
	}

	dest, err := g.checker.Check(ctx, nav.DestinationHost)
	if err != nil {
		g.logger.Warn("destination classification failed", "tab", nav.TabID, "host", nav.DestinationHost, "error", err)
		g.contexts.ClearContext(nav.TabID)
		res.Outcome = OutcomeUnavailable
		return res
	}

	switch {
	case dest.IsSafe:
		g.contexts.ClearContext(nav.TabID)
		g.effects.SetBadge(ctx, nav.TabID, model.BadgeSafe)
		res.Outcome = OutcomeSafeDestination

	case dest.IsUnsafe:
		g.effects.SetBadge(ctx, nav.TabID, model.BadgeDanger)
		g.effects.Notify(ctx, nav.Settings,
			notify.NewPrinter(nav.Settings.Language).DangerNavigation(nav.TabID, prov.Host, nav.DestinationHost))
		res.Outcome = OutcomeUnsafeDestination

	default:
		c := model.CrossDomainContext{
			TabID:           nav.TabID,
			SourceHost:      prov.Host,
			DestinationHost: nav.DestinationHost,
			Method:          model.MethodFor(nav.Transition, nav.IsRedirect),
			DestinationURL:  nav.DestinationURL,
			CreatedAt:       nav.Now,
		}
		if !g.contexts.PutContextIfCurrent(c) {
			res.Outcome = OutcomeStale
			break
		}
		g.effects.SetBadge(ctx, nav.TabID, model.BadgeWarning)
		res.Outcome = OutcomePending
		res.Context = &c
	}

	g.logger.Debug("cross-domain check",
		"tab", nav.TabID,
		"source", prov.Host,
		"via", prov.Source.String(),
		"host", nav.DestinationHost,
		"outcome", res.Outcome.String())
	return res
}
