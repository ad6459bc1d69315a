// Package nlu turns recognized speech into banking intents and
// structured command parameters using keyword and regex rules. The
// functions are pure: no network, no state, no errors.
package nlu

import (
	"strings"

	"voicebank/internal/domain"
)

// Keyword sets are checked in declaration order; the first set with a
// match wins, so a phrase containing both "transfer" and "balance"
// classifies as transfer.
var intentKeywords = []struct {
	intent   domain.Intent
	keywords []string
}{
	{domain.IntentTransfer, []string{"transfer", "send", "pay", "send money"}},
	{domain.IntentBalance, []string{"balance", "check balance", "account balance"}},
	{domain.IntentTransactions, []string{"transaction", "history", "statement", "transactions"}},
	{domain.IntentChangePIN, []string{"pin", "change pin", "reset pin", "update pin"}},
}

// ClassifyIntent maps free-form command text to an intent. It always
// returns a value; unmatched text yields IntentUnknown.
func ClassifyIntent(text string) domain.Intent {
	lower := strings.ToLower(text)

	for _, set := range intentKeywords {
		for _, kw := range set.keywords {
			if strings.Contains(lower, kw) {
				return set.intent
			}
		}
	}

	return domain.IntentUnknown
}
