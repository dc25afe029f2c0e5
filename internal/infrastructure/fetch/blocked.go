package fetch

import "strings"

// Anti-automation challenge signatures seen on retailer sites. The URL check
// catches the redirect wall, the body checks catch the inline interstitial.
var blockBodySignatures = []string{
	"we like real shoppers, not robots!",
	"press & hold",
	"are you a robot",
}

const blockedURLMarker = "/blocked"

// looksBlocked reports whether a response is an anti-bot challenge rather
// than real page content.
func looksBlocked(finalURL, body string) bool {
	if strings.Contains(strings.ToLower(finalURL), blockedURLMarker) {
		return true
	}
	lower := strings.ToLower(body)
	for _, sig := range blockBodySignatures {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// blockedAdvice is the operator guidance attached to BlockedError: the
// challenge is interactive and must be cleared in a visible browser session.
const blockedAdvice = "complete the interactive challenge in a headful browser session, then retry"
