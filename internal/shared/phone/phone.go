// Package phone canonicalizes contact phone numbers to one wire format.
package phone

import (
	"github.com/nyaruka/phonenumbers"

	"targetsync/internal/shared/errors"
)

// Normalize parses a phone number, assuming the given default region for
// numbers without a country prefix, and returns it in international
// format. Callers are expected to drop the contact channel on error
// rather than fail the sync.
func Normalize(raw, region string) (string, error) {
	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", errors.NewValidationError("invalid phone number", raw)
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL), nil
}
