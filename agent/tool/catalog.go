// Package tool declares the tools callable by the model and dispatches the
// model's tool-call requests against the validation and account logic.
package tool

import (
	contractx "github.com/apexfin/account-agent/agent/contract"
	validatex "github.com/apexfin/account-agent/agent/validate"
)

const (
	ToolValidateField = "validate_field"
	ToolShowAgreement = "show_agreement"
	ToolCreateAccount = "create_account"
)

// Specs returns the tool catalog sent to the model on every completion.
func Specs() []contractx.ToolSpec {
	fields := validatex.Fields()
	fieldEnum := make([]any, 0, len(fields))
	for _, f := range fields {
		fieldEnum = append(fieldEnum, string(f))
	}

	applicationProps := map[string]any{
		"firstName":   map[string]any{"type": "string"},
		"lastName":    map[string]any{"type": "string"},
		"email":       map[string]any{"type": "string"},
		"phone":       map[string]any{"type": "string", "description": "10-digit phone number"},
		"dateOfBirth": map[string]any{"type": "string", "description": "Date in MM/DD/YYYY or YYYY-MM-DD format"},
		"ssn":         map[string]any{"type": "string", "description": "9-digit SSN"},
		"street":      map[string]any{"type": "string"},
		"city":        map[string]any{"type": "string"},
		"state":       map[string]any{"type": "string", "description": "2-letter US state code"},
		"zip":         map[string]any{"type": "string", "description": "5-digit ZIP code"},
		"agreedToTerms": map[string]any{
			"type":        "boolean",
			"description": "True only after the user explicitly agreed to the Terms & Conditions",
		},
	}

	return []contractx.ToolSpec{
		{
			Name:        ToolValidateField,
			Description: "Validate a single form field value for the checking account application. Call this every time the user provides a value for a field.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"field_name": map[string]any{
						"type":        "string",
						"enum":        fieldEnum,
						"description": "The name of the field to validate",
					},
					"value": map[string]any{
						"type":        []any{"string", "object"},
						"description": "The value provided by the user; a street/city/state/zip record when validating the whole mailing address",
					},
				},
				"required": []any{"field_name", "value"},
			},
		},
		{
			Name:        ToolShowAgreement,
			Description: "Retrieve the Terms & Conditions document. Call this after all fields are collected and confirmed by the user, before account creation.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
				"required":   []any{},
			},
		},
		{
			Name:        ToolCreateAccount,
			Description: "Create the checking account after the user has agreed to the Terms & Conditions. Pass all validated customer data.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": applicationProps,
				"required": []any{
					"firstName", "lastName", "email", "phone", "dateOfBirth",
					"ssn", "street", "city", "state", "zip", "agreedToTerms",
				},
			},
		},
	}
}
