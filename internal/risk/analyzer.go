package risk

import (
	"context"
	"log/slog"

	"github.com/nao1215/rtps/internal/classifier"
	"github.com/nao1215/rtps/internal/model"
)

// Analyzer runs rules in order and returns the first finding.
type Analyzer struct {
	rules  []Rule
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// WithRules replaces the rule list.
func WithRules(rules ...Rule) Option {
	return func(a *Analyzer) {
		a.rules = rules
	}
}

// State is what the default rules read from the tab state store.
type State interface {
	HistoryReader
	ContextConsumer
}

// DefaultRules returns the standard rule order.
func DefaultRules(checker classifier.Checker, state State) []Rule {
	return []Rule{
		&DirectHostRule{Checker: checker},
		&PendingContextRule{Contexts: state},
		&ChainRule{History: state, Checker: checker},
	}
}

// NewAnalyzer creates an Analyzer with the default rules.
func NewAnalyzer(checker classifier.Checker, state State, opts ...Option) *Analyzer {
	a := &Analyzer{
		rules:  DefaultRules(checker, state),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Rules returns the rule names in evaluation order.
func (a *Analyzer) Rules() []string {
	names := make([]string, 0, len(a.rules))
	for _, r := range a.rules {
		names = append(names, r.Name())
	}
	return names
}

// Analyze evaluates the rules in order. If a rule fails, the analysis stops
// and an unknown finding is returned together with the error.
func (a *Analyzer) Analyze(ctx context.Context, in *Input) (Finding, error) {
	for _, r := range a.rules {
		f, err := r.Evaluate(ctx, in)
		if err != nil {
			a.logger.Warn("risk rule failed, degrading to unknown",
				"rule", r.Name(),
				"tab", in.TabID,
				"host", in.Host,
				"error", err)
			return Finding{Rule: r.Name(), Verdict: model.UnknownVerdict(in.Host)}, err
		}
		if f != nil {
			a.logger.Debug("risk rule matched",
				"rule", f.Rule,
				"tab", in.TabID,
				"host", in.Host,
				"status", f.Verdict.Status.String())
			return *f, nil
		}
	}
	return Finding{Verdict: model.UnknownVerdict(in.Host)}, nil
}
