package tool

import (
	_ "embed"
	"strings"
)

//go:embed terms/terms.txt
var termsRaw string

// Terms returns the Terms & Conditions text.
func Terms() string {
	return strings.TrimSpace(termsRaw)
}

// AgreementPayload is the show_agreement tool result.
type AgreementPayload struct {
	Terms       string `json:"terms"`
	Instruction string `json:"instruction"`
}

func agreement() AgreementPayload {
	return AgreementPayload{
		Terms:       Terms(),
		Instruction: "Present these terms to the user and ask them to type 'I agree' to accept.",
	}
}
