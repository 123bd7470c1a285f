package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	accountx "github.com/apexfin/account-agent/agent/account"
	contractx "github.com/apexfin/account-agent/agent/contract"
	statex "github.com/apexfin/account-agent/agent/state"
	validatex "github.com/apexfin/account-agent/agent/validate"
)

// Dispatcher executes parsed tool requests against a session. It never
// returns an error to the orchestrator: every failure, including unknown
// tool names and malformed arguments, becomes an IsError result so the model
// can self-correct.
type Dispatcher struct {
	factory *accountx.Factory
}

func NewDispatcher(factory *accountx.Factory) *Dispatcher {
	return &Dispatcher{factory: factory}
}

// CreateAccountOutput is the create_account tool result payload.
type CreateAccountOutput struct {
	Success       bool   `json:"success"`
	AccountNumber string `json:"accountNumber,omitempty"`
	RoutingNumber string `json:"routingNumber,omitempty"`
	AccountType   string `json:"accountType,omitempty"`
	CustomerName  string `json:"customerName,omitempty"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
}

// AddressVerdict aggregates the per-component verdicts for a mailing-address
// record passed to validate_field as an object.
type AddressVerdict struct {
	Valid   bool                                  `json:"valid"`
	Message string                                `json:"message"`
	Fields  map[validatex.Field]validatex.Verdict `json:"fields"`
}

// Dispatch executes one tool call. The caller must hold the session lock.
func (d *Dispatcher) Dispatch(ctx context.Context, sess *statex.Session, call contractx.ToolCall) contractx.ToolResult {
	req, err := ParseRequest(call.Name, call.Arguments)
	if err != nil {
		log.Warn().Str("session_id", sess.ID).Str("tool", call.Name).Err(err).Msg("tool call rejected")
		return errorResult(call, err.Error())
	}

	switch r := req.(type) {
	case ValidateFieldRequest:
		return d.validateField(sess, call, r)
	case ValidateAddressRequest:
		return d.validateAddress(sess, call, r)
	case ShowAgreementRequest:
		return result(call, agreement())
	case CreateAccountRequest:
		return d.createAccount(sess, call, r)
	}
	// Unreachable: ParseRequest returns every variant above.
	return errorResult(call, fmt.Sprintf("unhandled tool request %T", req))
}

func (d *Dispatcher) validateField(sess *statex.Session, call contractx.ToolCall, r ValidateFieldRequest) contractx.ToolResult {
	verdict := validatex.Check(r.Field, r.Value)
	if verdict.Valid {
		sess.SetField(r.Field, verdict.Cleaned)
	}
	return result(call, verdict)
}

func (d *Dispatcher) validateAddress(sess *statex.Session, call contractx.ToolCall, r ValidateAddressRequest) contractx.ToolResult {
	components := map[validatex.Field]string{
		validatex.FieldStreet: r.Address.Street,
		validatex.FieldCity:   r.Address.City,
		validatex.FieldState:  r.Address.State,
		validatex.FieldZip:    r.Address.Zip,
	}

	out := AddressVerdict{
		Valid:  true,
		Fields: make(map[validatex.Field]validatex.Verdict, len(components)),
	}
	var problems []string
	for field, value := range components {
		verdict := validatex.Check(field, value)
		out.Fields[field] = verdict
		if !verdict.Valid {
			out.Valid = false
			problems = append(problems, verdict.Message)
		}
	}

	if out.Valid {
		out.Message = "Valid"
		for field := range components {
			sess.SetField(field, out.Fields[field].Cleaned)
		}
	} else {
		out.Message = strings.Join(problems, " ")
	}
	return result(call, out)
}

func (d *Dispatcher) createAccount(sess *statex.Session, call contractx.ToolCall, r CreateAccountRequest) contractx.ToolResult {
	if sess.AccountCreated {
		return errorPayload(call, CreateAccountOutput{
			Success: false,
			Error:   contractx.ErrAccountExists.Error(),
		})
	}

	// Merge the supplied data into the draft, each value through the
	// validator; nothing enters the draft unvalidated.
	supplied := map[validatex.Field]string{
		validatex.FieldFirstName:   r.Data.FirstName,
		validatex.FieldLastName:    r.Data.LastName,
		validatex.FieldEmail:       r.Data.Email,
		validatex.FieldPhone:       r.Data.Phone,
		validatex.FieldDateOfBirth: r.Data.DateOfBirth,
		validatex.FieldSSN:         r.Data.SSN,
		validatex.FieldStreet:      r.Data.Address.Street,
		validatex.FieldCity:        r.Data.Address.City,
		validatex.FieldState:       r.Data.Address.State,
		validatex.FieldZip:         r.Data.Address.Zip,
	}
	var rejected []string
	for _, field := range validatex.Fields() {
		value := supplied[field]
		if strings.TrimSpace(value) == "" {
			continue
		}
		verdict := validatex.Check(field, value)
		if !verdict.Valid {
			rejected = append(rejected, fmt.Sprintf("%s: %s", field, verdict.Message))
			continue
		}
		sess.SetField(field, verdict.Cleaned)
	}
	if len(rejected) > 0 {
		return errorPayload(call, CreateAccountOutput{
			Success: false,
			Error:   "invalid fields: " + strings.Join(rejected, " "),
		})
	}

	if r.Data.AgreedToTerms {
		sess.Consent = true
	}

	rec, err := d.factory.Create(sess.Application())
	if err != nil {
		return errorPayload(call, CreateAccountOutput{Success: false, Error: err.Error()})
	}

	sess.AccountCreated = true
	log.Info().Str("session_id", sess.ID).Msg("account created")

	return result(call, CreateAccountOutput{
		Success:       true,
		AccountNumber: rec.AccountNumber,
		RoutingNumber: rec.RoutingNumber,
		AccountType:   rec.AccountType,
		CustomerName:  rec.CustomerName,
		Message:       "Account created successfully!",
	})
}

func result(call contractx.ToolCall, payload any) contractx.ToolResult {
	raw, err := json.Marshal(payload)
	if err != nil {
		return errorResult(call, fmt.Sprintf("marshal tool result: %v", err))
	}
	return contractx.ToolResult{CallID: call.ID, Tool: call.Name, Payload: raw}
}

func errorPayload(call contractx.ToolCall, payload any) contractx.ToolResult {
	res := result(call, payload)
	res.IsError = true
	return res
}

func errorResult(call contractx.ToolCall, msg string) contractx.ToolResult {
	raw, _ := json.Marshal(map[string]string{"error": msg})
	return contractx.ToolResult{CallID: call.ID, Tool: call.Name, Payload: raw, IsError: true}
}
