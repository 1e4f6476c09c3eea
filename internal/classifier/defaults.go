package classifier

// DefaultSafeHosts is the built-in list of widely used sites that a fresh
// store is seeded with.
var DefaultSafeHosts = []string{
	// Microsoft
	"microsoft.com", "live.com", "outlook.com", "hotmail.com", "office.com",
	"microsoftonline.com", "azure.com", "xbox.com", "skype.com", "linkedin.com",
	"github.com", "visualstudio.com", "windows.com", "bing.com", "msn.com",

	// Google
	"google.com", "gmail.com", "youtube.com", "googleapis.com", "gstatic.com",
	"accounts.google.com", "cloud.google.com", "drive.google.com",

	// Meta
	"facebook.com", "instagram.com", "whatsapp.com", "messenger.com", "meta.com",
	"fb.com", "fbcdn.net",

	// Apple
	"apple.com", "icloud.com", "appleid.apple.com", "itunes.com",

	// Amazon
	"amazon.com", "amazon.co.uk", "amazon.de", "amazon.es", "amazon.fr",
	"amazon.it", "amazon.com.mx", "amazon.com.br", "aws.amazon.com", "amazonaws.com",

	// Social
	"twitter.com", "x.com", "tiktok.com", "reddit.com", "pinterest.com",
	"tumblr.com", "snapchat.com", "discord.com", "twitch.tv",

	// Payments
	"paypal.com", "stripe.com", "venmo.com", "wise.com", "revolut.com",

	// Ecommerce
	"ebay.com", "etsy.com", "shopify.com", "aliexpress.com", "alibaba.com",
	"mercadolibre.com", "mercadolibre.com.mx", "mercadolibre.com.co",

	// Streaming
	"netflix.com", "spotify.com", "hulu.com", "disneyplus.com", "hbomax.com",
	"primevideo.com", "crunchyroll.com",

	// Productivity
	"slack.com", "zoom.us", "dropbox.com", "box.com", "notion.so",
	"trello.com", "asana.com", "atlassian.com", "jira.com", "confluence.com",
	"salesforce.com", "hubspot.com", "zendesk.com",

	// Developer
	"gitlab.com", "bitbucket.org", "stackoverflow.com", "npmjs.com",
	"docker.com", "heroku.com", "vercel.com", "netlify.com", "cloudflare.com",

	// Education
	"coursera.org", "udemy.com", "edx.org", "khanacademy.org",

	// Other
	"wordpress.com", "blogger.com", "medium.com", "quora.com",
	"yahoo.com", "aol.com", "proton.me", "protonmail.com",
}
