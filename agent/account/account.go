// Package account holds the checking account application model and the
// factory that issues account records.
package account

// Address is a US mailing address.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// Application is a complete checking account application. Field values are
// expected to be pre-validated (see the validate package); the factory only
// checks presence and consent.
type Application struct {
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	DateOfBirth   string  `json:"dateOfBirth"`
	SSN           string  `json:"ssn"`
	Address       Address `json:"address"`
	AgreedToTerms bool    `json:"agreedToTerms"`
}

// TypeChecking is the only account type this service opens.
const TypeChecking = "Checking"

// Record is an issued account. Immutable once created.
type Record struct {
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
	AccountType   string `json:"accountType"`
	CustomerName  string `json:"customerName"`
}
