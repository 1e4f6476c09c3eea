package engine

import (
	"context"

	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
	"github.com/nao1215/rtps/internal/notify"
	"github.com/nao1215/rtps/internal/risk"
)

// ReportPasswordFieldDetected analyzes a page that shows a password field
// and dispatches the side effects of the verdict.
//
// host may be empty, in which case it is derived from url. The returned
// error is informational: the verdict is always usable and degrades to
// unknown when the tab, the URL, the classifier or the settings are
// unavailable. A failure to record the detection is logged only.
func (e *Engine) ReportPasswordFieldDetected(ctx context.Context, tab model.TabID, host, url, documentReferrer string) (model.Verdict, error) {
	host = hostname.Normalize(host)
	urlHost, err := hostname.FromURL(url)
	if err != nil {
		return model.UnknownVerdict(host), err
	}
	if host == "" {
		host = urlHost
	}
	if tab == "" {
		return model.UnknownVerdict(host), ErrMissingTabContext
	}

	settings, err := e.settings(ctx)
	if err != nil {
		return model.UnknownVerdict(host), err
	}

	now := e.clock()
	finding, err := e.analyzer.Analyze(ctx, &risk.Input{
		TabID:            tab,
		Host:             host,
		URL:              url,
		DocumentReferrer: documentReferrer,
		Settings:         settings,
		Now:              now,
	})
	v := finding.Verdict
	if err != nil {
		e.effects.PublishVerdict(tab, v)
		return v, err
	}

	printer := notify.NewPrinter(settings.Language)
	switch v.Status {
	case model.VerdictUnsafe, model.VerdictPhishing:
		e.recordDetection(ctx, tab, model.NewDetection(v, url, finding.Detection, now))
		e.effects.SetBadge(ctx, tab, model.BadgeDanger)
		e.effects.Notify(ctx, settings, alertFor(printer, tab, finding))
	case model.VerdictSafe:
		e.effects.SetBadge(ctx, tab, model.BadgeSafe)
	}

	e.logger.Info("password field analyzed",
		"tab", tab,
		"host", host,
		"url", url,
		"status", v.Status.String(),
		"rule", finding.Rule)
	e.effects.PublishVerdict(tab, v)
	return v, nil
}

func (e *Engine) recordDetection(ctx context.Context, tab model.TabID, d model.Detection) {
	inserted, err := e.store.AddDetection(ctx, d)
	if err != nil {
		e.logger.Error("failed to record detection", "tab", tab, "url", d.URL, "error", err)
		return
	}
	if inserted {
		e.effects.PublishDetection(tab, d)
	}
}

func alertFor(p *notify.Printer, tab model.TabID, f risk.Finding) notify.Notification {
	v := f.Verdict
	if v.Status == model.VerdictUnsafe {
		return p.UnsafePassword(tab, v.Host)
	}
	if f.Detection == model.DetectionCrossDomainPassword {
		return p.Phishing(tab, notify.KeyPhishingTitle, v.NavigationMethod, v.SourceHost, v.Host)
	}
	method := v.NavigationMethod
	if method == "" {
		method = model.MethodNavigated
	}
	return p.Phishing(tab, notify.KeyPhishingDetected, method, v.SourceHost, v.Host)
}
