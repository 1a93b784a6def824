package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Local numbers are tried against these regions in order.
var supportedRegions = []string{
	"IN",
	"BD",
}

func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	for _, region := range supportedRegions {
		parsed, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			continue
		}
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
	return ""
}
