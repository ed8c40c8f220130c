package widget

import (
	"net/http"
	"strings"

	"github.com/grambudget/grambudget/internal/transport"
)

// setupMarkers are fragments of an error message meaning the AI provider account still needs billing
// set up, as opposed to a transient failure.
var setupMarkers = []string{
	"credit card",
	"credit_card",
	"402",
	"403",
	"Gateway",
}

// SetupRequired reports whether an error message calls for the setup guidance rather than the generic
// failure notice.
func SetupRequired(message string) bool {
	for _, marker := range setupMarkers {
		if strings.Contains(message, marker) {
			return true
		}
	}
	return false
}

// Notice is the text shown in place of an answer when a turn fails.
type Notice struct {
	Title string
	Body  string
	Link  string

	SetupRequired bool
}

// NoticeFor picks the notice for a failed turn. A request rejected with 402 or 403 needs setup whatever
// its body says.
func NoticeFor(sig *transport.ErrorSignal) Notice {
	if sig != nil && (SetupRequired(sig.Message) || setupStatus(sig.Status)) {
		return Notice{
			Title:         "AI Setup Required",
			Body:          "The AI chatbot requires a credit card on the Vercel account to unlock free credits. Go to Vercel Dashboard > AI > Add credit card.",
			Link:          "https://vercel.com/dashboard",
			SetupRequired: true,
		}
	}
	return Notice{
		Body: "Something went wrong. Please try again later.",
	}
}

func setupStatus(status int) bool {
	return status == http.StatusPaymentRequired || status == http.StatusForbidden
}
