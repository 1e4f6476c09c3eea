package risk

import (
	"context"
	"fmt"

	"github.com/nao1215/rtps/internal/classifier"
	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
)

// DirectHostRule classifies the page host itself.
type DirectHostRule struct {
	Checker classifier.Checker
}

// Name implements Rule.
func (r *DirectHostRule) Name() string { return "direct-host" }

// Evaluate implements Rule.
func (r *DirectHostRule) Evaluate(ctx context.Context, in *Input) (*Finding, error) {
	status, err := r.Checker.Check(ctx, in.Host)
	if err != nil {
		return nil, err
	}
	switch {
	case status.IsUnsafe:
		return &Finding{
			Rule:      r.Name(),
			Verdict:   model.UnsafeVerdict(in.Host),
			Detection: model.DetectionUnsafeHost,
		}, nil
	case status.IsSafe:
		return &Finding{Rule: r.Name(), Verdict: model.SafeVerdict(in.Host)}, nil
	}
	return nil, nil
}

// PendingContextRule fires when the cross-domain gate stored a context for
// this tab whose destination is the page host. The context is consumed.
type PendingContextRule struct {
	Contexts ContextConsumer
}

// Name implements Rule.
func (r *PendingContextRule) Name() string { return "pending-context" }

// Evaluate implements Rule.
func (r *PendingContextRule) Evaluate(_ context.Context, in *Input) (*Finding, error) {
	c, ok := r.Contexts.ConsumeContext(in.TabID, in.Host, in.Now)
	if !ok {
		return nil, nil
	}
	return &Finding{
		Rule: r.Name(),
		Verdict: model.Verdict{
			Status:           model.VerdictPhishing,
			Host:             in.Host,
			Alert:            true,
			HighlightFields:  true,
			SourceHost:       c.SourceHost,
			RedirectChain:    []string{c.SourceHost, in.Host},
			Reason:           PendingContextReason(c.SourceHost, in.Host),
			NavigationMethod: c.Method,
		},
		Detection: model.DetectionCrossDomainPassword,
	}, nil
}

// ChainRule inspects the last Settings.RedirectLevels history entries.
type ChainRule struct {
	History HistoryReader
	Checker classifier.Checker
}

// Name implements Rule.
func (r *ChainRule) Name() string { return "navigation-chain" }

// Evaluate implements Rule. It always returns a finding; an unknown verdict
// ends the analysis.
func (r *ChainRule) Evaluate(ctx context.Context, in *Input) (*Finding, error) {
	unknown := &Finding{Rule: r.Name(), Verdict: model.UnknownVerdict(in.Host)}

	window := lastN(r.History.HistoryOf(in.TabID), in.Settings.EffectiveRedirectLevels())

	var current *model.NavigationEntry
	if len(window) > 0 {
		current = &window[len(window)-1]
		if current.IsTyped() {
			return unknown, nil
		}
	}

	var source *model.NavigationEntry
	for i := len(window) - 1; i >= 0; i-- {
		if !hostname.IsSameDomain(window[i].Host, in.Host) {
			source = &window[i]
			break
		}
	}

	sourceHost := ""
	if source != nil {
		sourceHost = source.Host
	} else if in.DocumentReferrer != "" {
		if h, err := hostname.FromURL(in.DocumentReferrer); err == nil && !hostname.IsSameDomain(h, in.Host) {
			sourceHost = h
		}
	}
	if sourceHost == "" {
		return unknown, nil
	}

	status, err := r.Checker.Check(ctx, sourceHost)
	if err != nil {
		return nil, err
	}

	chain := hostsOf(window)

	if status.IsSafe {
		method := chainMethod(source, current)
		return r.phishing(in, model.Verdict{
			SourceHost:       sourceHost,
			RedirectChain:    chain,
			NavigationMethod: method,
			Reason:           TrustedSourceReason(method, sourceHost, in.Host),
		}), nil
	}

	// An unsafe source does not escalate an unknown destination.
	if status.IsUnsafe {
		return unknown, nil
	}

	unique := uniqueHosts(chain)
	redirects := 0
	for _, e := range window {
		if e.IsRedirect {
			redirects++
		}
	}
	if len(unique) >= 3 || redirects >= 2 {
		return r.phishing(in, model.Verdict{
			SourceHost:    unique[0],
			RedirectChain: chain,
			Reason:        MultipleRedirectsReason(len(unique), redirects),
		}), nil
	}

	if (source != nil && source.IsLink()) || (current != nil && current.IsLink()) {
		return r.phishing(in, model.Verdict{
			SourceHost:       sourceHost,
			RedirectChain:    chain,
			NavigationMethod: model.MethodLinkClick,
			Reason:           UnknownSourceLinkReason(sourceHost, in.Host),
		}), nil
	}

	return unknown, nil
}

func (r *ChainRule) phishing(in *Input, v model.Verdict) *Finding {
	v.Status = model.VerdictPhishing
	v.Host = in.Host
	v.Alert = true
	v.HighlightFields = true
	return &Finding{Rule: r.Name(), Verdict: v, Detection: model.DetectionRedirectChain}
}

// chainMethod prefers how the source entry was reached, then how the current
// entry was reached.
func chainMethod(source, current *model.NavigationEntry) model.NavigationMethod {
	switch {
	case source != nil && source.IsLink():
		return model.MethodLinkClick
	case source != nil && source.IsRedirect:
		return model.MethodRedirect
	case current != nil && current.IsLink():
		return model.MethodLinkClick
	default:
		return model.MethodNavigated
	}
}

func lastN(h []model.NavigationEntry, n int) []model.NavigationEntry {
	if len(h) > n {
		return h[len(h)-n:]
	}
	return h
}

func hostsOf(entries []model.NavigationEntry) []string {
	hosts := make([]string, 0, len(entries))
	for _, e := range entries {
		hosts = append(hosts, e.Host)
	}
	return hosts
}

func uniqueHosts(hosts []string) []string {
	seen := make(map[string]struct{}, len(hosts))
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

// PendingContextReason explains a cross-domain password detection.
func PendingContextReason(source, host string) string {
	return fmt.Sprintf("Password field detected after navigating from trusted site %q to unknown site %q", source, host)
}

// TrustedSourceReason explains a chain that started on a trusted site.
func TrustedSourceReason(method model.NavigationMethod, source, host string) string {
	return fmt.Sprintf("You %s from trusted site %q to unknown site %q which is asking for credentials.", method, source, host)
}

// MultipleRedirectsReason explains a suspicious multi-domain chain.
func MultipleRedirectsReason(domains, redirects int) string {
	return fmt.Sprintf("Multiple redirects detected through %d different domains (%d redirects) before reaching a login page.", domains, redirects)
}

// UnknownSourceLinkReason explains a link click from an unknown site.
func UnknownSourceLinkReason(source, host string) string {
	return fmt.Sprintf("You clicked a link from %q that led to unknown site %q which is asking for credentials.", source, host)
}
