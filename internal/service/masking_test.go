package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSSN(t *testing.T) {
	assert.Equal(t, "***-**-6789", MaskSSN("123-45-6789"))
	assert.Equal(t, "***-**-6789", MaskSSN("123456789"))
	assert.Equal(t, "***-**-****", MaskSSN("12"))
	assert.Equal(t, "***-**-****", MaskSSN(""))
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "****-****-****-1111", MaskCardNumber("4111111111111111"))
	assert.Equal(t, "****-****-****-1111", MaskCardNumber("4111-1111-1111-1111"))
	assert.Equal(t, "****-****-****-****", MaskCardNumber("41"))
}

func TestMaskAccountNumber(t *testing.T) {
	assert.Equal(t, "******4310", MaskAccountNumber("0000004310"))
	assert.Equal(t, "****", MaskAccountNumber("42"))
}

func TestMaskPhoneNumber(t *testing.T) {
	assert.Equal(t, "***-***-4567", MaskPhoneNumber("+1 (555) 123-4567"))
	assert.Equal(t, "***-***-****", MaskPhoneNumber("55"))
}

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***e@example.com", MaskEmail("john.doe@example.com"))
	assert.Equal(t, "a***e@example.com", MaskEmail("alice@example.com"))
	assert.Equal(t, "j***@example.com", MaskEmail("j@example.com"))
	assert.Equal(t, "***", MaskEmail("@example.com"))
	assert.Equal(t, "***", MaskEmail("not-an-email"))
}

func TestMaskDateOfBirth(t *testing.T) {
	assert.Equal(t, "1990-**-**", MaskDateOfBirth("1990-04-12"))
	assert.Equal(t, "****", MaskDateOfBirth("90"))
}

func TestMaskAddress(t *testing.T) {
	assert.Equal(t, "*** Springfield, IL", MaskAddress("Springfield", "IL"))
	assert.Equal(t, "***", MaskAddress("", ""))
}
