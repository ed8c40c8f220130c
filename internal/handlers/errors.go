package handlers

import (
	"net/http"
	"strings"
)

// genericErrorMessage is used when a provider failure carries no text at all.
const genericErrorMessage = "An unexpected error occurred"

// billingMarkers are fragments of provider error text meaning the account cannot be billed yet, for example
// because no credit card is on file or the customer still has to be verified.
var billingMarkers = []string{
	"credit card",
	"customer_verification",
}

// statusForProviderError maps a failed provider call to the status and message sent to the client. The
// message is the provider's own error text so the client can classify it further.
func statusForProviderError(err error) (int, string) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if msg == "" {
		return http.StatusInternalServerError, genericErrorMessage
	}

	for _, marker := range billingMarkers {
		if strings.Contains(msg, marker) {
			return http.StatusPaymentRequired, msg
		}
	}
	return http.StatusInternalServerError, msg
}
