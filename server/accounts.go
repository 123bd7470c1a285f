package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	accountx "github.com/apexfin/account-agent/agent/account"
	validatex "github.com/apexfin/account-agent/agent/validate"
)

type accountRequest struct {
	FirstName     string           `json:"firstName"`
	LastName      string           `json:"lastName"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone"`
	DateOfBirth   string           `json:"dateOfBirth"`
	SSN           string           `json:"ssn"`
	Address       accountx.Address `json:"address"`
	AgreedToTerms bool             `json:"agreedToTerms"`
}

type accountResponse struct {
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
	AccountType   string `json:"accountType"`
	Message       string `json:"message"`
	CustomerName  string `json:"customerName"`
}

// createAccount is the direct, non-conversational path. It runs the same
// field validators the agent tools use and returns every failure at once.
func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fieldErrors := map[string]string{}
	app := accountx.Application{AgreedToTerms: req.AgreedToTerms}

	check := func(field validatex.Field, value string, dst *string) {
		v := validatex.Check(field, value)
		if !v.Valid {
			fieldErrors[string(field)] = v.Message
			return
		}
		*dst = v.Cleaned
	}

	check(validatex.FieldFirstName, req.FirstName, &app.FirstName)
	check(validatex.FieldLastName, req.LastName, &app.LastName)
	check(validatex.FieldEmail, req.Email, &app.Email)
	check(validatex.FieldPhone, req.Phone, &app.Phone)
	check(validatex.FieldDateOfBirth, req.DateOfBirth, &app.DateOfBirth)
	check(validatex.FieldSSN, req.SSN, &app.SSN)
	check(validatex.FieldStreet, req.Address.Street, &app.Address.Street)
	check(validatex.FieldCity, req.Address.City, &app.Address.City)
	check(validatex.FieldState, req.Address.State, &app.Address.State)
	check(validatex.FieldZip, req.Address.Zip, &app.Address.Zip)

	if !req.AgreedToTerms {
		fieldErrors["agreedToTerms"] = "You must agree to the Terms & Conditions to open an account."
	}

	if len(fieldErrors) > 0 {
		JSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fieldErrors})
		return
	}

	record, err := h.factory.Create(app)
	if err != nil {
		log.Error().Err(err).Msg("account creation failed after validation")
		Error(w, http.StatusInternalServerError, "account creation failed")
		return
	}

	JSON(w, http.StatusOK, accountResponse{
		AccountNumber: record.AccountNumber,
		RoutingNumber: record.RoutingNumber,
		AccountType:   record.AccountType,
		Message:       "Account created successfully!",
		CustomerName:  record.CustomerName,
	})
}
