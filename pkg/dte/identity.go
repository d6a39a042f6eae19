package dte

import "fmt"

// ValidateDUI valida el dígito verificador del DUI ("12345678-4" o "123456784").
// Pesos 9..2 sobre los ocho primeros dígitos, verificador = (10 - suma mod 10) mod 10.
func ValidateDUI(dui string) error {
	digits := extractDigits(dui)
	if len(digits) != 9 {
		return fmt.Errorf("dte: el DUI debe tener 9 dígitos, se encontraron %d", len(digits))
	}
	expected := DUICheckDigit(digits[:8])
	if digits[8] != expected {
		return fmt.Errorf("dte: dígito verificador del DUI inválido: esperado %c, recibido %c", expected, digits[8])
	}
	return nil
}

// DUICheckDigit calcula el verificador para ocho dígitos.
func DUICheckDigit(base []byte) byte {
	var sum int
	for i, d := range base {
		sum += int(d-'0') * (9 - i)
	}
	return byte('0' + (10-sum%10)%10)
}

// ValidateNIT acepta el NIT de 14 dígitos o un DUI homologado (9 dígitos).
func ValidateNIT(nit string) error {
	digits := extractDigits(nit)
	switch len(digits) {
	case 14:
		return nil
	case 9:
		return ValidateDUI(string(digits))
	default:
		return fmt.Errorf("dte: el NIT debe tener 14 dígitos o ser un DUI homologado, se encontraron %d", len(digits))
	}
}

// NormalizeDigits quita guiones y espacios (formato que espera Hacienda).
func NormalizeDigits(s string) string {
	return string(extractDigits(s))
}

func extractDigits(s string) []byte {
	var out []byte
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, byte(r))
		}
	}
	return out
}
