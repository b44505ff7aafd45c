package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// --- CPF / CNPJ ---

// OnlyDigits remove todos os caracteres não numéricos.
func OnlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// IsValidCNPJ verifica se uma string de CNPJ (apenas dígitos) é válida.
func IsValidCNPJ(cnpj string) bool {
	if len(cnpj) != 14 || !isAllDigits(cnpj) || allDigitsEqual(cnpj) {
		return false
	}

	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	if checkDigit(cnpj[:12], weights1) != int(cnpj[12]-'0') {
		return false
	}
	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	return checkDigit(cnpj[:13], weights2) == int(cnpj[13]-'0')
}

// IsValidCPF verifica se uma string de CPF (apenas dígitos) é válida.
func IsValidCPF(cpf string) bool {
	if len(cpf) != 11 || !isAllDigits(cpf) || allDigitsEqual(cpf) {
		return false
	}

	weights1 := []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	if checkDigit(cpf[:9], weights1) != int(cpf[9]-'0') {
		return false
	}
	weights2 := []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	return checkDigit(cpf[:10], weights2) == int(cpf[10]-'0')
}

// IsValidTaxID aceita CPF (11 dígitos) ou CNPJ (14 dígitos), já limpos.
func IsValidTaxID(doc string) bool {
	switch len(doc) {
	case 11:
		return IsValidCPF(doc)
	case 14:
		return IsValidCNPJ(doc)
	}
	return false
}

// checkDigit calcula o dígito verificador módulo 11 usado por CPF e CNPJ.
func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// allDigitsEqual verifica se todos os caracteres em uma string são iguais (ex: "00000000000").
func allDigitsEqual(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// FormatTaxID formata 11 dígitos como CPF (###.###.###-##) e 14 dígitos como CNPJ
// (##.###.###/####-##). Outros tamanhos voltam como recebidos.
func FormatTaxID(doc string) string {
	digits := OnlyDigits(doc)
	switch len(digits) {
	case 11:
		return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
	case 14:
		return digits[0:2] + "." + digits[2:5] + "." + digits[5:8] + "/" + digits[8:12] + "-" + digits[12:14]
	}
	return doc
}

// --- Endereço ---

var ufRegex = regexp.MustCompile(`^[A-Z]{2}$`)

// IsValidUF valida a sigla do estado (duas letras maiúsculas).
func IsValidUF(uf string) bool {
	return ufRegex.MatchString(strings.TrimSpace(uf))
}

// IsValidCEP valida um CEP com 8 dígitos (aceita máscara).
func IsValidCEP(cep string) bool {
	return len(OnlyDigits(cep)) == 8
}

// FormatCEP formata um CEP como #####-###.
func FormatCEP(cep string) string {
	digits := OnlyDigits(cep)
	if len(digits) != 8 {
		return cep
	}
	return digits[:5] + "-" + digits[5:]
}

// --- Sanitização ---

// SanitizeInput remove caracteres de controle e colapsa espaços repetidos.
func SanitizeInput(inputStr string) string {
	if inputStr == "" {
		return ""
	}
	var sb strings.Builder
	lastWasSpace := false
	for _, r := range inputStr {
		if unicode.IsControl(r) && r != '\t' && r != '\n' && r != '\r' {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				sb.WriteRune(' ')
				lastWasSpace = true
			}
			continue
		}
		sb.WriteRune(r)
		lastWasSpace = false
	}
	return strings.TrimSpace(sb.String())
}

// TruncateRunes corta s em no máximo limit caracteres (runas, não bytes).
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
