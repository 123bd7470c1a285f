package account

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	contractx "github.com/apexfin/account-agent/agent/contract"
)

const (
	accountNumberLen = 10
	routingSuffixLen = 5
)

// Plausible ABA-style prefixes; only the 9-digit shape matters here.
var routingPrefixes = []string{"0210", "0260", "0310", "0440", "1210"}

// maxIssueAttempts bounds the collision retry loop; with a 10-digit space it
// is effectively unreachable within one process lifetime.
const maxIssueAttempts = 1000

// Factory issues account records. It remembers every account number handed
// out in this process and never reissues one.
type Factory struct {
	mu     sync.Mutex
	issued map[string]struct{}

	digits func(n int) string
}

// FactoryOption customizes a Factory.
type FactoryOption func(*Factory)

// WithDigitSource replaces the random digit generator. Test seam.
func WithDigitSource(fn func(n int) string) FactoryOption {
	return func(f *Factory) {
		if fn != nil {
			f.digits = fn
		}
	}
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		issued: make(map[string]struct{}),
		digits: randomDigits,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Create issues a new account record for a complete, consented application.
func (f *Factory) Create(app Application) (Record, error) {
	if missing := app.missingFields(); len(missing) > 0 {
		return Record{}, fmt.Errorf("%w: missing %s", contractx.ErrIncompleteApplication, strings.Join(missing, ", "))
	}
	if !app.AgreedToTerms {
		return Record{}, fmt.Errorf("%w: terms and conditions not accepted", contractx.ErrIncompleteApplication)
	}

	accountNumber, err := f.issueAccountNumber()
	if err != nil {
		return Record{}, err
	}

	return Record{
		AccountNumber: accountNumber,
		RoutingNumber: f.routingNumber(),
		AccountType:   TypeChecking,
		CustomerName:  app.FirstName + " " + app.LastName,
	}, nil
}

func (f *Factory) issueAccountNumber() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := 0; i < maxIssueAttempts; i++ {
		n := f.digits(accountNumberLen)
		if _, taken := f.issued[n]; taken {
			continue
		}
		f.issued[n] = struct{}{}
		return n, nil
	}
	return "", fmt.Errorf("account number space exhausted after %d attempts", maxIssueAttempts)
}

func (f *Factory) routingNumber() string {
	prefix := routingPrefixes[rand.Intn(len(routingPrefixes))]
	return prefix + f.digits(routingSuffixLen)
}

func (app Application) missingFields() []string {
	var missing []string
	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	require("firstName", app.FirstName)
	require("lastName", app.LastName)
	require("email", app.Email)
	require("phone", app.Phone)
	require("dateOfBirth", app.DateOfBirth)
	require("ssn", app.SSN)
	require("street", app.Address.Street)
	require("city", app.Address.City)
	require("state", app.Address.State)
	require("zip", app.Address.Zip)
	return missing
}

func randomDigits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + rand.Intn(10)))
	}
	return b.String()
}
