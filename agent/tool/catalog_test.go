package tool

import (
	"errors"
	"testing"

	contractx "github.com/apexfin/account-agent/agent/contract"
)

func TestSpecs(t *testing.T) {
	t.Parallel()

	specs := Specs()
	if len(specs) != 3 {
		t.Fatalf("expected 3 tool specs, got %d", len(specs))
	}
	names := []string{ToolValidateField, ToolShowAgreement, ToolCreateAccount}
	for i, want := range names {
		if specs[i].Name != want {
			t.Fatalf("spec %d: got %s, want %s", i, specs[i].Name, want)
		}
		if specs[i].Parameters["type"] != "object" {
			t.Fatalf("spec %s: parameters must be an object schema", want)
		}
	}

	props, ok := specs[0].Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatal("validate_field: missing properties")
	}
	fieldName, ok := props["field_name"].(map[string]any)
	if !ok {
		t.Fatal("validate_field: missing field_name property")
	}
	enum, ok := fieldName["enum"].([]any)
	if !ok || len(enum) != 10 {
		t.Fatalf("validate_field: expected a 10-field enum, got %v", fieldName["enum"])
	}
}

func TestParseRequestVariants(t *testing.T) {
	t.Parallel()

	req, err := ParseRequest(ToolValidateField, []byte(`{"field_name":"email","value":"a@b.com"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	vf, ok := req.(ValidateFieldRequest)
	if !ok {
		t.Fatalf("expected ValidateFieldRequest, got %T", req)
	}
	if string(vf.Field) != "email" || vf.Value != "a@b.com" {
		t.Fatalf("unexpected request: %+v", vf)
	}

	req, err = ParseRequest(ToolValidateField, []byte(`{"field_name":"street","value":{"street":"123 Main Street","city":"Austin","state":"TX","zip":"78701"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	va, ok := req.(ValidateAddressRequest)
	if !ok {
		t.Fatalf("expected ValidateAddressRequest, got %T", req)
	}
	if va.Address.City != "Austin" {
		t.Fatalf("unexpected address: %+v", va.Address)
	}

	if _, err = ParseRequest(ToolShowAgreement, []byte(`{}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, err = ParseRequest(ToolCreateAccount, []byte(`{"firstName":"Alice","street":"123 Main Street","agreedToTerms":true}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ca, ok := req.(CreateAccountRequest)
	if !ok {
		t.Fatalf("expected CreateAccountRequest, got %T", req)
	}
	if ca.Data.FirstName != "Alice" || ca.Data.Address.Street != "123 Main Street" || !ca.Data.AgreedToTerms {
		t.Fatalf("unexpected request: %+v", ca.Data)
	}
}

func TestParseRequestUnknownTool(t *testing.T) {
	t.Parallel()

	_, err := ParseRequest("transfer_funds", []byte(`{}`))
	if !errors.Is(err, contractx.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
}

func TestParseRequestMissingArguments(t *testing.T) {
	t.Parallel()

	if _, err := ParseRequest(ToolValidateField, []byte(`{"value":"x"}`)); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing field_name, got %v", err)
	}
	if _, err := ParseRequest(ToolValidateField, []byte(`{"field_name":"email"}`)); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing value, got %v", err)
	}
	if _, err := ParseRequest(ToolCreateAccount, []byte(`not json`)); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed arguments, got %v", err)
	}
}
