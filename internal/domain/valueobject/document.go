package valueobject

import (
	"fmt"
	"unicode"

	"github.com/jhoicas/sportstore-backend/internal/domain"
)

// Tipos de documento fiscal.
const (
	DocumentTypeCPF  = "CPF"  // persona natural, 11 dígitos
	DocumentTypeCNPJ = "CNPJ" // persona jurídica, 14 dígitos
)

// pesos para los dígitos de verificación del CNPJ (algoritmo oficial módulo 11).
var (
	cnpjWeightsFirst  = [12]int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeightsSecond = [13]int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// Document documento fiscal validado (CPF o CNPJ). Inmutable una vez construido:
// guarda solo los dígitos canónicos y el tipo discriminado.
type Document struct {
	digits  string
	docType string
}

// NewDocument valida y construye un Document a partir de la entrada cruda,
// con o sin puntuación ("529.982.247-25", "52998224725", "11.222.333/0001-81").
// Falla con ErrInvalidDocumentFormat si tras limpiar no quedan 11 o 14 dígitos,
// y con ErrInvalidDocumentChecksum si los dígitos de verificación no cuadran
// o todos los dígitos son iguales (secuencias degeneradas como "111.111.111-11").
func NewDocument(raw string) (Document, error) {
	digits := extractDigits(raw)
	if digits == "" {
		return Document{}, fmt.Errorf("%w: documento vacío", domain.ErrInvalidDocumentFormat)
	}

	var docType string
	switch len(digits) {
	case 11:
		docType = DocumentTypeCPF
	case 14:
		docType = DocumentTypeCNPJ
	default:
		return Document{}, fmt.Errorf("%w: se esperaban 11 dígitos (CPF) o 14 (CNPJ), hay %d",
			domain.ErrInvalidDocumentFormat, len(digits))
	}

	if allDigitsEqual(digits) {
		return Document{}, fmt.Errorf("%w: todos los dígitos son iguales", domain.ErrInvalidDocumentChecksum)
	}

	if docType == DocumentTypeCPF {
		if err := validateCPF(digits); err != nil {
			return Document{}, err
		}
	} else {
		if err := validateCNPJ(digits); err != nil {
			return Document{}, err
		}
	}

	return Document{digits: digits, docType: docType}, nil
}

// Digits dígitos canónicos sin puntuación.
func (d Document) Digits() string { return d.digits }

// Type tipo discriminado: DocumentTypeCPF o DocumentTypeCNPJ.
func (d Document) Type() string { return d.docType }

// IsCPF true si el documento es un CPF.
func (d Document) IsCPF() bool { return d.docType == DocumentTypeCPF }

// IsCNPJ true si el documento es un CNPJ.
func (d Document) IsCNPJ() bool { return d.docType == DocumentTypeCNPJ }

// Formatted representación con puntuación: XXX.XXX.XXX-XX para CPF,
// XX.XXX.XXX/XXXX-XX para CNPJ.
func (d Document) Formatted() string {
	if d.docType == DocumentTypeCPF {
		return d.digits[0:3] + "." + d.digits[3:6] + "." + d.digits[6:9] + "-" + d.digits[9:11]
	}
	return d.digits[0:2] + "." + d.digits[2:5] + "." + d.digits[5:8] + "/" + d.digits[8:12] + "-" + d.digits[12:14]
}

// Masked representación enmascarada para privacidad: solo los dos dígitos
// de verificación quedan visibles.
func (d Document) Masked() string {
	if d.docType == DocumentTypeCPF {
		return "***.***.***-" + d.digits[9:11]
	}
	return "**.***.***/****-" + d.digits[12:14]
}

// String usa la representación con puntuación.
func (d Document) String() string { return d.Formatted() }

// validateCPF verifica los dos dígitos de verificación del CPF: suma ponderada
// con pesos descendentes 10..2 sobre los primeros 9 dígitos para el primero,
// y 11..2 sobre los primeros 10 para el segundo (módulo 11, resto < 2 -> 0).
func validateCPF(digits string) error {
	dv1 := mod11CheckDigit(digits[:9], descendingWeights(10))
	if int(digits[9]-'0') != dv1 {
		return fmt.Errorf("%w: primer dígito de verificación del CPF incorrecto", domain.ErrInvalidDocumentChecksum)
	}
	dv2 := mod11CheckDigit(digits[:10], descendingWeights(11))
	if int(digits[10]-'0') != dv2 {
		return fmt.Errorf("%w: segundo dígito de verificación del CPF incorrecto", domain.ErrInvalidDocumentChecksum)
	}
	return nil
}

// validateCNPJ verifica los dos dígitos de verificación del CNPJ con las
// secuencias de pesos oficiales de 12 y 13 posiciones.
func validateCNPJ(digits string) error {
	dv1 := mod11CheckDigit(digits[:12], cnpjWeightsFirst[:])
	if int(digits[12]-'0') != dv1 {
		return fmt.Errorf("%w: primer dígito de verificación del CNPJ incorrecto", domain.ErrInvalidDocumentChecksum)
	}
	dv2 := mod11CheckDigit(digits[:13], cnpjWeightsSecond[:])
	if int(digits[13]-'0') != dv2 {
		return fmt.Errorf("%w: segundo dígito de verificación del CNPJ incorrecto", domain.ErrInvalidDocumentChecksum)
	}
	return nil
}

// mod11CheckDigit suma ponderada módulo 11: resto < 2 -> 0, si no 11 - resto.
func mod11CheckDigit(digits string, weights []int) int {
	var sum int
	for i := range digits {
		sum += int(digits[i]-'0') * weights[i]
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

// descendingWeights pesos descendentes desde 'from' hasta 2 (para CPF).
func descendingWeights(from int) []int {
	weights := make([]int, from-1)
	for i := range weights {
		weights[i] = from - i
	}
	return weights
}

// extractDigits conserva solo los dígitos de la entrada.
func extractDigits(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if unicode.IsDigit(r) && r < 128 {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

func allDigitsEqual(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
