package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/rtps/internal/config"
	"github.com/nao1215/rtps/internal/hostname"
	"github.com/nao1215/rtps/internal/model"
)

// ErrInvalidSettings is returned when an update would produce settings that
// fail validation. Nothing is stored in that case.
var ErrInvalidSettings = errors.New("invalid settings")

// Request is a user or page-script operation. The set of requests is closed:
// every variant is declared in this file and handled by its own method.
type Request interface {
	handle(ctx context.Context, e *Engine) (any, error)
}

// PasswordFieldDetected asks for a verdict on a page with a password field.
// The result is a model.Verdict.
type PasswordFieldDetected struct {
	TabID            model.TabID `json:"tabId"`
	Host             string      `json:"host"`
	URL              string      `json:"url"`
	DocumentReferrer string      `json:"referrer,omitempty"`
}

// CheckHostStatus classifies a host. The result is a model.HostStatus.
type CheckHostStatus struct {
	Host string `json:"host"`
}

// AddSafeHost puts a host on the safe list. The result is the updated
// model.HostLists.
type AddSafeHost struct {
	Host string `json:"host"`
}

// AddUnsafeHost puts a host on the unsafe list. The result is the updated
// model.HostLists.
type AddUnsafeHost struct {
	Host string `json:"host"`
}

// RemoveHost drops a host from both lists. The result is the updated
// model.HostLists.
type RemoveHost struct {
	Host string `json:"host"`
}

// GetAllHosts returns model.HostLists.
type GetAllHosts struct{}

// GetDetectedPhishing returns the []model.Detection log.
type GetDetectedPhishing struct{}

// ClearDetectedPhishing empties the log. The result is a ClearResult.
type ClearDetectedPhishing struct{}

// GetSettings returns model.Settings.
type GetSettings struct{}

// UpdateSettings merges a patch over the stored settings. The result is the
// new model.Settings.
type UpdateSettings struct {
	Patch model.SettingsPatch `json:"settings"`
}

// GetNavigationHistory returns the tab's []model.NavigationEntry.
type GetNavigationHistory struct {
	TabID model.TabID `json:"tabId"`
}

// ClearResult reports how many detections were removed.
type ClearResult struct {
	Removed int64 `json:"removed"`
}

// Handle runs a request and returns its typed result.
func (e *Engine) Handle(ctx context.Context, req Request) (any, error) {
	return req.handle(ctx, e)
}

func (r PasswordFieldDetected) handle(ctx context.Context, e *Engine) (any, error) {
	return e.ReportPasswordFieldDetected(ctx, r.TabID, r.Host, r.URL, r.DocumentReferrer)
}

func (r CheckHostStatus) handle(ctx context.Context, e *Engine) (any, error) {
	return e.QueryHostStatus(ctx, r.Host)
}

func (r AddSafeHost) handle(ctx context.Context, e *Engine) (any, error) {
	return e.AddHost(ctx, r.Host, true)
}

func (r AddUnsafeHost) handle(ctx context.Context, e *Engine) (any, error) {
	return e.AddHost(ctx, r.Host, false)
}

func (r RemoveHost) handle(ctx context.Context, e *Engine) (any, error) {
	return e.RemoveHost(ctx, r.Host)
}

func (GetAllHosts) handle(ctx context.Context, e *Engine) (any, error) {
	return e.HostLists(ctx)
}

func (GetDetectedPhishing) handle(ctx context.Context, e *Engine) (any, error) {
	return e.Detections(ctx)
}

func (ClearDetectedPhishing) handle(ctx context.Context, e *Engine) (any, error) {
	return e.ClearDetections(ctx)
}

func (GetSettings) handle(ctx context.Context, e *Engine) (any, error) {
	return e.Settings(ctx)
}

func (r UpdateSettings) handle(ctx context.Context, e *Engine) (any, error) {
	return e.UpdateSettings(ctx, r.Patch)
}

func (r GetNavigationHistory) handle(_ context.Context, e *Engine) (any, error) {
	if r.TabID == "" {
		return []model.NavigationEntry{}, ErrMissingTabContext
	}
	return e.QueryNavigationHistory(r.TabID), nil
}

// HostLists returns the safe and unsafe lists.
func (e *Engine) HostLists(ctx context.Context) (model.HostLists, error) {
	return e.store.HostLists(ctx)
}

// Detections returns the detected-phishing log, oldest first.
func (e *Engine) Detections(ctx context.Context) ([]model.Detection, error) {
	return e.store.Detections(ctx)
}

// ClearDetections empties the detected-phishing log.
func (e *Engine) ClearDetections(ctx context.Context) (ClearResult, error) {
	n, err := e.store.ClearDetections(ctx)
	if err != nil {
		return ClearResult{}, err
	}
	e.logger.Info("detections cleared", "removed", n)
	return ClearResult{Removed: n}, nil
}

// Settings returns the stored settings.
func (e *Engine) Settings(ctx context.Context) (model.Settings, error) {
	return e.store.Settings(ctx)
}

// AddHost puts host on the safe or unsafe list and returns the new lists.
func (e *Engine) AddHost(ctx context.Context, host string, safe bool) (model.HostLists, error) {
	host = hostname.Normalize(host)
	if err := e.store.AddHost(ctx, host, safe); err != nil {
		return model.HostLists{}, err
	}
	e.logger.Info("host list updated", "host", host, "safe", safe)
	return e.store.HostLists(ctx)
}

// RemoveHost drops host from both lists and returns the new lists.
func (e *Engine) RemoveHost(ctx context.Context, host string) (model.HostLists, error) {
	if err := e.store.RemoveHost(ctx, host); err != nil {
		return model.HostLists{}, err
	}
	e.logger.Info("host removed from lists", "host", hostname.Normalize(host))
	return e.store.HostLists(ctx)
}

// UpdateSettings validates and stores a settings patch.
func (e *Engine) UpdateSettings(ctx context.Context, patch model.SettingsPatch) (model.Settings, error) {
	current, err := e.store.Settings(ctx)
	if err != nil {
		return current, err
	}
	if patch.Language != nil {
		lang, err := config.CanonicalLanguage(*patch.Language)
		if err != nil {
			return current, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
		patch.Language = &lang
	}
	next := current.Apply(patch)
	if err := config.ValidateSettings(next); err != nil {
		return current, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
	}
	return e.store.UpdateSettings(ctx, patch)
}
