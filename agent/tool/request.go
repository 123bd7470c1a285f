package tool

import (
	"encoding/json"
	"fmt"

	accountx "github.com/apexfin/account-agent/agent/account"
	contractx "github.com/apexfin/account-agent/agent/contract"
	validatex "github.com/apexfin/account-agent/agent/validate"
)

// Request is the closed set of parsed tool invocations. The sealed marker
// keeps dispatch a total type switch; only ParseRequest, which handles the
// model's raw payload, can fail on an unknown tool name.
type Request interface {
	isRequest()
}

// ValidateFieldRequest validates a single scalar field value.
type ValidateFieldRequest struct {
	Field validatex.Field
	Value string
}

func (ValidateFieldRequest) isRequest() {}

// ValidateAddressRequest validates a full mailing-address record, produced
// when the model passes an object value to validate_field.
type ValidateAddressRequest struct {
	Address accountx.Address
}

func (ValidateAddressRequest) isRequest() {}

// ShowAgreementRequest retrieves the Terms & Conditions text.
type ShowAgreementRequest struct{}

func (ShowAgreementRequest) isRequest() {}

// CreateAccountRequest creates the account from the supplied application
// data merged with the session draft.
type CreateAccountRequest struct {
	Data accountx.Application
}

func (CreateAccountRequest) isRequest() {}

type validateFieldArgs struct {
	FieldName string          `json:"field_name"`
	Value     json.RawMessage `json:"value"`
}

// create_account arguments arrive flat, address components at the top level.
type createAccountArgs struct {
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	DateOfBirth   string `json:"dateOfBirth"`
	SSN           string `json:"ssn"`
	Street        string `json:"street"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"`
	AgreedToTerms bool   `json:"agreedToTerms"`
}

// ParseRequest turns a raw tool call into a typed request. This is the only
// place tool names and argument shapes are checked at runtime.
func ParseRequest(name string, args json.RawMessage) (Request, error) {
	switch name {
	case ToolValidateField:
		var raw validateFieldArgs
		if err := json.Unmarshal(args, &raw); err != nil {
			return nil, fmt.Errorf("%w: validate_field arguments: %v", contractx.ErrValidation, err)
		}
		if raw.FieldName == "" {
			return nil, fmt.Errorf("%w: field_name is required", contractx.ErrValidation)
		}
		if len(raw.Value) == 0 {
			return nil, fmt.Errorf("%w: value is required", contractx.ErrValidation)
		}

		var scalar string
		if err := json.Unmarshal(raw.Value, &scalar); err == nil {
			return ValidateFieldRequest{Field: validatex.Field(raw.FieldName), Value: scalar}, nil
		}
		var addr accountx.Address
		if err := json.Unmarshal(raw.Value, &addr); err != nil {
			return nil, fmt.Errorf("%w: value must be a string or an address record", contractx.ErrValidation)
		}
		return ValidateAddressRequest{Address: addr}, nil

	case ToolShowAgreement:
		return ShowAgreementRequest{}, nil

	case ToolCreateAccount:
		var raw createAccountArgs
		if err := json.Unmarshal(args, &raw); err != nil {
			return nil, fmt.Errorf("%w: create_account arguments: %v", contractx.ErrValidation, err)
		}
		return CreateAccountRequest{
			Data: accountx.Application{
				FirstName:   raw.FirstName,
				LastName:    raw.LastName,
				Email:       raw.Email,
				Phone:       raw.Phone,
				DateOfBirth: raw.DateOfBirth,
				SSN:         raw.SSN,
				Address: accountx.Address{
					Street: raw.Street,
					City:   raw.City,
					State:  raw.State,
					Zip:    raw.Zip,
				},
				AgreedToTerms: raw.AgreedToTerms,
			},
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, name)
}
