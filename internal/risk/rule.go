package risk

import (
	"context"
	"time"

	"github.com/nao1215/rtps/internal/model"
)

// Input is a password-field detection to analyze.
type Input struct {
	TabID            model.TabID
	Host             string
	URL              string
	DocumentReferrer string
	Settings         model.Settings
	Now              time.Time
}

// Finding is the outcome of the first rule that matched.
type Finding struct {
	// Rule is the name of the rule that produced the finding.
	Rule string

	// Verdict is returned to the caller.
	Verdict model.Verdict

	// Detection is the log entry type used when the verdict alerts.
	Detection model.DetectionType
}

// Rule is one step of the analysis.
type Rule interface {
	// Name returns a short identifier used in logs.
	Name() string

	// Evaluate returns a finding, or nil when the rule does not apply.
	Evaluate(ctx context.Context, in *Input) (*Finding, error)
}

// HistoryReader returns a tab's navigation history, oldest first.
type HistoryReader interface {
	HistoryOf(tab model.TabID) []model.NavigationEntry
}

// ContextConsumer removes and returns a live pending context.
type ContextConsumer interface {
	ConsumeContext(tab model.TabID, host string, now time.Time) (model.CrossDomainContext, bool)
}
