package notify

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/nao1215/rtps/internal/model"
)

// Message keys.
const (
	KeyDangerTitle        = "notifDangerTitle"
	KeyDangerMessage      = "notifDangerMessage"
	KeyDoNotEnterPassword = "doNotEnterPassword"
	KeyPhishingTitle      = "notifPhishingTitle"
	KeyPhishingMessage    = "notifPhishingMessage"
	KeyPhishingDetected   = "phishingDetected"
)

// SupportedLanguages lists the languages with a message catalog.
var SupportedLanguages = []language.Tag{language.English, language.Spanish, language.Japanese}

var messages = buildCatalog()

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	set := func(tag language.Tag, key, msg string) {
		// SetString only fails for malformed messages.
		if err := b.SetString(tag, key, msg); err != nil {
			panic(err)
		}
	}

	set(language.English, KeyDangerTitle, "Dangerous site")
	set(language.English, KeyDangerMessage, "You went from %[1]s to %[2]s, which is on your unsafe list.")
	set(language.English, KeyDoNotEnterPassword, "Do not enter your password on this site.")
	set(language.English, KeyPhishingTitle, "Possible phishing")
	set(language.English, KeyPhishingMessage, "You %[1]s from %[2]s to %[3]s, which is asking for your password. Do not enter it unless you trust this site.")
	set(language.English, KeyPhishingDetected, "Phishing detected")

	set(language.Spanish, KeyDangerTitle, "Sitio peligroso")
	set(language.Spanish, KeyDangerMessage, "Pasaste de %[1]s a %[2]s, que está en tu lista de sitios inseguros.")
	set(language.Spanish, KeyDoNotEnterPassword, "No introduzcas tu contraseña en este sitio.")
	set(language.Spanish, KeyPhishingTitle, "Posible phishing")
	set(language.Spanish, KeyPhishingMessage, "Llegaste (%[1]s) desde %[2]s a %[3]s, que te pide la contraseña. No la introduzcas si no confías en este sitio.")
	set(language.Spanish, KeyPhishingDetected, "Phishing detectado")

	set(language.Japanese, KeyDangerTitle, "危険なサイト")
	set(language.Japanese, KeyDangerMessage, "%[1]s から安全でないサイト %[2]s に移動しました。")
	set(language.Japanese, KeyDoNotEnterPassword, "このサイトではパスワードを入力しないでください。")
	set(language.Japanese, KeyPhishingTitle, "フィッシングの可能性")
	set(language.Japanese, KeyPhishingMessage, "%[2]s から %[3]s に移動しました (%[1]s)。このサイトはパスワードを要求しています。")
	set(language.Japanese, KeyPhishingDetected, "フィッシングを検出しました")

	return b
}

// Printer formats notification text in one language.
type Printer struct {
	p *message.Printer
}

// NewPrinter returns a Printer for lang. Unknown or malformed languages fall
// back to English.
func NewPrinter(lang string) *Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	_, idx, _ := language.NewMatcher(SupportedLanguages).Match(tag)
	return &Printer{p: message.NewPrinter(SupportedLanguages[idx], message.Catalog(messages))}
}

// Sprintf formats the message stored under key.
func (p *Printer) Sprintf(key string, args ...any) string {
	return p.p.Sprintf(key, args...)
}

// DangerNavigation is shown when a trusted site leads to an unsafe one.
func (p *Printer) DangerNavigation(tab model.TabID, source, dest string) Notification {
	return Notification{
		TabID:    tab,
		Host:     dest,
		Title:    p.Sprintf(KeyDangerTitle),
		Message:  p.Sprintf(KeyDangerMessage, source, dest),
		Priority: PriorityUrgent,
	}
}

// UnsafePassword is shown when a password field appears on an unsafe host.
func (p *Printer) UnsafePassword(tab model.TabID, host string) Notification {
	return Notification{
		TabID:    tab,
		Host:     host,
		Title:    p.Sprintf(KeyDangerTitle),
		Message:  p.Sprintf(KeyDoNotEnterPassword),
		Priority: PriorityUrgent,
	}
}

// Phishing is shown for a phishing verdict. titleKey distinguishes a pending
// context match from chain analysis.
func (p *Printer) Phishing(tab model.TabID, titleKey string, method model.NavigationMethod, source, host string) Notification {
	return Notification{
		TabID:    tab,
		Host:     host,
		Title:    p.Sprintf(titleKey),
		Message:  p.Sprintf(KeyPhishingMessage, string(method), source, host),
		Priority: PriorityHigh,
	}
}
