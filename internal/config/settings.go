package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/nao1215/rtps/internal/model"
)

// CanonicalLanguage parses lang as a BCP 47 tag and returns its canonical
// form ("EN-us" becomes "en-US").
func CanonicalLanguage(lang string) (string, error) {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return "", ErrInvalidLanguage
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
	return tag.String(), nil
}

// ValidateSettings checks engine settings.
func ValidateSettings(s model.Settings) error {
	if s.RedirectLevels < 1 {
		return ErrInvalidRedirectLevels
	}
	if _, err := CanonicalLanguage(s.Language); err != nil {
		return err
	}
	return nil
}

// ValidatePatch checks only the fields a patch sets.
func ValidatePatch(p model.SettingsPatch) error {
	if p.RedirectLevels != nil && *p.RedirectLevels < 1 {
		return ErrInvalidRedirectLevels
	}
	if p.Language != nil {
		if _, err := CanonicalLanguage(*p.Language); err != nil {
			return err
		}
	}
	return nil
}
