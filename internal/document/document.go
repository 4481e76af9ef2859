// Package document validates Brazilian taxpayer identifiers (CPF and CNPJ)
// using their check-digit algorithms. All functions are pure.
package document

import "strings"

// Type identifies the kind of document a raw input resolved to.
type Type string

const (
	// TypeCPF is an individual taxpayer identifier (11 digits).
	TypeCPF Type = "cpf"
	// TypeCNPJ is a corporate taxpayer identifier (14 digits).
	TypeCNPJ Type = "cnpj"
	// TypeUnknown means the input length matches neither document.
	TypeUnknown Type = "unknown"
)

const (
	// CPFLength is the digit count of a CPF.
	CPFLength = 11
	// CNPJLength is the digit count of a CNPJ.
	CNPJLength = 14
)

// Validation is the outcome of validating a raw document string.
type Validation struct {
	Valid bool
	Type  Type
	// Err holds a user-facing description when Valid is false.
	Err string
}

// OnlyDigits strips every non-numeric character from s.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// allSameDigit reports whether every character of s equals the first.
// Sequences like "00000000000" carry valid check digits but are not
// issued documents.
func allSameDigit(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func isNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// cpfCheckDigit computes the check digit over digits using descending
// weights starting at firstWeight. A modulo-11 remainder of 10 or 11
// maps to 0.
func cpfCheckDigit(digits string, firstWeight int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * (firstWeight - i)
	}
	d := 11 - sum%11
	if d >= 10 {
		return 0
	}
	return d
}

// IsValidCPF reports whether digits is a structurally valid CPF:
// exactly 11 numeric characters, not an all-repeated sequence, and
// both check digits matching the weighted-sum algorithm.
func IsValidCPF(digits string) bool {
	if len(digits) != CPFLength || !isNumeric(digits) {
		return false
	}
	if allSameDigit(digits) {
		return false
	}
	if cpfCheckDigit(digits[:9], 10) != int(digits[9]-'0') {
		return false
	}
	return cpfCheckDigit(digits[:10], 11) == int(digits[10]-'0')
}

// cnpjCheckDigit computes a CNPJ check digit over digits. Weights run
// 2..9 right to left, resetting to 2 after 9. A remainder under 2 maps
// to 0, otherwise the digit is 11 minus the remainder.
func cnpjCheckDigit(digits string) int {
	weight := 2
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if weight > 9 {
			weight = 2
		}
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// IsValidCNPJ reports whether digits is a structurally valid CNPJ:
// exactly 14 numeric characters, not an all-repeated sequence, and
// both check digits matching the weighted-sum algorithm.
func IsValidCNPJ(digits string) bool {
	if len(digits) != CNPJLength || !isNumeric(digits) {
		return false
	}
	if allSameDigit(digits) {
		return false
	}
	if cnpjCheckDigit(digits[:12]) != int(digits[12]-'0') {
		return false
	}
	return cnpjCheckDigit(digits[:13]) == int(digits[13]-'0')
}

// Validate strips non-digit characters from raw and dispatches on
// length: 11 digits validate as CPF, 14 as CNPJ. Anything else is
// reported as TypeUnknown. External callers should use this entry
// point rather than the per-document validators.
func Validate(raw string) Validation {
	digits := OnlyDigits(raw)
	switch len(digits) {
	case CPFLength:
		if IsValidCPF(digits) {
			return Validation{Valid: true, Type: TypeCPF}
		}
		return Validation{Type: TypeCPF, Err: "CPF inválido"}
	case CNPJLength:
		if IsValidCNPJ(digits) {
			return Validation{Valid: true, Type: TypeCNPJ}
		}
		return Validation{Type: TypeCNPJ, Err: "CNPJ inválido"}
	default:
		return Validation{Type: TypeUnknown, Err: "documento deve ter 11 (CPF) ou 14 (CNPJ) dígitos"}
	}
}
