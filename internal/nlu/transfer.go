package nlu

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	amountPattern    = regexp.MustCompile(`(\d+)(?:\s*(?:dollars|rupees|rs|inr|\$))?`)
	recipientPattern = regexp.MustCompile(`(?:to|for)\s+([a-zA-Z\s]+)`)
)

// TransferDetails holds the parameters extracted from a transfer
// command. A nil Amount or empty Recipient means the field could not
// be parsed; that is a valid outcome the caller must turn into a
// clarification prompt, not an error.
type TransferDetails struct {
	Amount    *decimal.Decimal
	Recipient string
}

// ExtractTransfer pulls the amount and recipient out of a transfer
// command. The amount is the first run of digits, optionally followed
// by a currency word; the recipient is the first "to <words>" or
// "for <words>" span of the lower-cased text.
func ExtractTransfer(text string) TransferDetails {
	var details TransferDetails

	if m := amountPattern.FindStringSubmatch(text); m != nil {
		amount, err := decimal.NewFromString(m[1])
		if err == nil {
			details.Amount = &amount
		}
	}

	if m := recipientPattern.FindStringSubmatch(strings.ToLower(text)); m != nil {
		details.Recipient = strings.TrimSpace(m[1])
	}

	return details
}
