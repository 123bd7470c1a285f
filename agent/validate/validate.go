// Package validate implements the field-level rules for checking account
// applications. Validation is pure: no session access, no side effects, and
// the same verdict for the same input. Both the conversational tool path and
// the direct account API run through this package.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Field names a validatable application field. The string values match the
// wire names used by the chat tool schema and the direct account API.
type Field string

const (
	FieldFirstName   Field = "firstName"
	FieldLastName    Field = "lastName"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
	FieldDateOfBirth Field = "dateOfBirth"
	FieldSSN         Field = "ssn"
	FieldStreet      Field = "street"
	FieldCity        Field = "city"
	FieldState       Field = "state"
	FieldZip         Field = "zip"
)

// Fields lists every known field in collection order.
func Fields() []Field {
	return []Field{
		FieldFirstName,
		FieldLastName,
		FieldEmail,
		FieldPhone,
		FieldDateOfBirth,
		FieldSSN,
		FieldStreet,
		FieldCity,
		FieldState,
		FieldZip,
	}
}

// Known reports whether f is a recognized field name.
func Known(f Field) bool {
	switch f {
	case FieldFirstName, FieldLastName, FieldEmail, FieldPhone, FieldDateOfBirth,
		FieldSSN, FieldStreet, FieldCity, FieldState, FieldZip:
		return true
	}
	return false
}

// Verdict is the outcome of validating one field. Cleaned carries the
// normalized value (digits-only phone/SSN, uppercased state) and is only set
// when Valid is true.
type Verdict struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
	Cleaned string `json:"cleaned_value,omitempty"`
}

func invalid(msg string) Verdict { return Verdict{Valid: false, Message: msg} }

func valid(cleaned string) Verdict {
	return Verdict{Valid: true, Message: "Valid", Cleaned: cleaned}
}

var (
	namePattern    = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	cityPattern    = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)
	zipPattern     = regexp.MustCompile(`^\d{5}$`)
	usDatePattern  = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	nonDigits      = regexp.MustCompile(`\D`)
)

// The 50 US state codes plus DC.
var validStates = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {}, "FL": {}, "GA": {},
	"HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {},
	"MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {}, "NH": {}, "NJ": {},
	"NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {}, "OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {},
	"SD": {}, "TN": {}, "TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {}, "WY": {},
	"DC": {},
}

// now is a seam for age computation in tests.
var now = time.Now

// Check validates a single raw field value and returns a verdict.
func Check(field Field, value string) Verdict {
	v := strings.TrimSpace(value)

	switch field {
	case FieldFirstName, FieldLastName:
		return checkName(field, v)
	case FieldEmail:
		return checkEmail(v)
	case FieldPhone:
		return checkPhone(v)
	case FieldDateOfBirth:
		return checkDateOfBirth(v)
	case FieldSSN:
		return checkSSN(v)
	case FieldStreet:
		return checkStreet(v)
	case FieldCity:
		return checkCity(v)
	case FieldState:
		return checkState(v)
	case FieldZip:
		return checkZip(v)
	}
	return invalid(fmt.Sprintf("Unknown field: %s", field))
}

func checkName(field Field, v string) Verdict {
	label := "First name"
	if field == FieldLastName {
		label = "Last name"
	}
	if v == "" {
		return invalid(label + " is required.")
	}
	if len(v) < 2 || len(v) > 50 {
		return invalid(label + " must be 2–50 characters.")
	}
	if !namePattern.MatchString(v) {
		return invalid(label + " can only contain letters, spaces, hyphens, and apostrophes.")
	}
	return valid(v)
}

func checkEmail(v string) Verdict {
	if v == "" {
		return invalid("Email is required.")
	}
	if !emailPattern.MatchString(v) {
		return invalid("Please enter a valid email address.")
	}
	return valid(v)
}

func checkPhone(v string) Verdict {
	digits := nonDigits.ReplaceAllString(v, "")
	if len(digits) != 10 {
		return invalid("Phone number must be exactly 10 digits.")
	}
	return valid(digits)
}

func checkDateOfBirth(v string) Verdict {
	if v == "" {
		return invalid("Date of birth is required.")
	}

	var (
		dob time.Time
		err error
	)
	switch {
	case usDatePattern.MatchString(v):
		dob, err = time.Parse("01/02/2006", v)
		if err != nil {
			return invalid("Invalid date. Use MM/DD/YYYY format.")
		}
	case isoDatePattern.MatchString(v):
		dob, err = time.Parse("2006-01-02", v)
		if err != nil {
			return invalid("Invalid date. Use YYYY-MM-DD format.")
		}
	default:
		return invalid("Please enter date in MM/DD/YYYY format.")
	}

	age := ageAt(dob, now())
	if age < 18 {
		return invalid("You must be at least 18 years old.")
	}
	if age > 120 {
		return invalid("Please enter a valid date of birth.")
	}
	return valid(v)
}

// ageAt floors: the birthday this year may not have been reached yet.
func ageAt(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

func checkSSN(v string) Verdict {
	digits := nonDigits.ReplaceAllString(v, "")
	if len(digits) != 9 {
		return invalid("SSN must be exactly 9 digits.")
	}
	// Invalid SSN area-number ranges.
	if strings.HasPrefix(digits, "000") || strings.HasPrefix(digits, "666") || strings.HasPrefix(digits, "9") {
		return invalid("Please enter a valid SSN.")
	}
	return valid(digits)
}

func checkStreet(v string) Verdict {
	if len(v) < 5 || len(v) > 100 {
		return invalid("Street address must be 5–100 characters.")
	}
	return valid(v)
}

func checkCity(v string) Verdict {
	if !cityPattern.MatchString(v) {
		return invalid("City can only contain letters and spaces.")
	}
	return valid(v)
}

func checkState(v string) Verdict {
	v = strings.ToUpper(v)
	if _, ok := validStates[v]; !ok {
		return invalid("Please enter a valid 2-letter US state code (e.g., CA, NY, TX).")
	}
	return valid(v)
}

func checkZip(v string) Verdict {
	if !zipPattern.MatchString(v) {
		return invalid("ZIP code must be exactly 5 digits.")
	}
	return valid(v)
}
