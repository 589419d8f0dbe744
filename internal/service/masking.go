package service

import "strings"

// Masking helpers for PII display. Inputs are plaintext (already
// decrypted); outputs are safe for API responses and logs. Values too
// short to mask meaningfully are fully redacted rather than leaked.

// MaskSSN renders an SSN as ***-**-NNNN.
func MaskSSN(ssn string) string {
	digits := digitsOf(ssn)
	if len(digits) < 4 {
		return "***-**-****"
	}
	return "***-**-" + digits[len(digits)-4:]
}

// MaskCardNumber renders a PAN as ****-****-****-NNNN.
func MaskCardNumber(pan string) string {
	digits := digitsOf(pan)
	if len(digits) < 4 {
		return "****-****-****-****"
	}
	return "****-****-****-" + digits[len(digits)-4:]
}

// MaskAccountNumber keeps the last four digits of an account number.
func MaskAccountNumber(number string) string {
	if len(number) < 4 {
		return "****"
	}
	return "******" + number[len(number)-4:]
}

// MaskPhoneNumber keeps the last four digits.
func MaskPhoneNumber(phone string) string {
	digits := digitsOf(phone)
	if len(digits) < 4 {
		return "***-***-****"
	}
	return "***-***-" + digits[len(digits)-4:]
}

// MaskEmail keeps the first and last characters of the local part and
// the full domain. Single-character local parts keep only that character.
func MaskEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at < 1 {
		return "***"
	}
	if at == 1 {
		return email[:1] + "***" + email[at:]
	}
	return email[:1] + "***" + email[at-1:]
}

// MaskDateOfBirth keeps only the year of a YYYY-MM-DD date.
func MaskDateOfBirth(dob string) string {
	if len(dob) < 4 {
		return "****"
	}
	return dob[:4] + "-**-**"
}

// MaskAddress keeps city and state, hiding street and zip.
func MaskAddress(city, state string) string {
	parts := make([]string, 0, 2)
	if city != "" {
		parts = append(parts, city)
	}
	if state != "" {
		parts = append(parts, state)
	}
	if len(parts) == 0 {
		return "***"
	}
	return "*** " + strings.Join(parts, ", ")
}

func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
