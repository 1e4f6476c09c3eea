package model

// DefaultRedirectLevels is how many history entries chain analysis inspects.
const DefaultRedirectLevels = 4

// Settings are the user-tunable engine settings.
type Settings struct {
	Enabled           bool   `json:"enabled" yaml:"enabled"`
	ShowNotifications bool   `json:"showNotifications" yaml:"showNotifications"`
	RedirectLevels    int    `json:"redirectLevels" yaml:"redirectLevels"`
	Language          string `json:"language" yaml:"language"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		Enabled:           true,
		ShowNotifications: true,
		RedirectLevels:    DefaultRedirectLevels,
		Language:          "en",
	}
}

// SettingsPatch is a partial update; nil fields are left unchanged.
type SettingsPatch struct {
	Enabled           *bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ShowNotifications *bool   `json:"showNotifications,omitempty" yaml:"showNotifications,omitempty"`
	RedirectLevels    *int    `json:"redirectLevels,omitempty" yaml:"redirectLevels,omitempty"`
	Language          *string `json:"language,omitempty" yaml:"language,omitempty"`
}

// Apply returns s with the non-nil fields of p merged over it.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.Enabled != nil {
		s.Enabled = *p.Enabled
	}
	if p.ShowNotifications != nil {
		s.ShowNotifications = *p.ShowNotifications
	}
	if p.RedirectLevels != nil {
		s.RedirectLevels = *p.RedirectLevels
	}
	if p.Language != nil {
		s.Language = *p.Language
	}
	return s
}

// EffectiveRedirectLevels returns RedirectLevels, or the default when unset.
func (s Settings) EffectiveRedirectLevels() int {
	if s.RedirectLevels <= 0 {
		return DefaultRedirectLevels
	}
	return s.RedirectLevels
}
