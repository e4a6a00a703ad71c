package patient

import "regexp"

// Patient mirrors the record served by the patient directory.
type Patient struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	TRID      string `json:"trIdNumber"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
	Email     string `json:"email"`
}

// tridPattern matches an 11-digit TR identity number that does not start
// with zero.
var tridPattern = regexp.MustCompile(`^[1-9][0-9]{10}$`)

// IsValidTRID reports whether s is a well-formed TR identity number.
func IsValidTRID(s string) bool {
	return tridPattern.MatchString(s)
}
