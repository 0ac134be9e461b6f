package valueobject

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/sportstore-backend/internal/domain"
)

// maxAmount tope del dominio para cualquier monto: R$ 999.999,99.
var maxAmount = decimal.RequireFromString("999999.99")

// brPrinter formatea números con separadores pt-BR (1.234,56).
var brPrinter = message.NewPrinter(language.BrazilianPortuguese)

// Money monto monetario inmutable con escala fija de 2 decimales.
// Invariante: 0 <= valor <= 999999.99. Toda operación aritmética devuelve un
// nuevo Money re-validado; nunca se muta el receptor.
type Money struct {
	amount decimal.Decimal
}

// Zero monto cero (singleton de conveniencia, válido por construcción).
var Zero = Money{amount: decimal.Zero}

// NewMoney construye un Money validado. Redondea a 2 decimales y falla con
// ErrAmountOutOfRange si el valor es negativo o supera el tope.
func NewMoney(amount decimal.Decimal) (Money, error) {
	rounded := amount.Round(2)
	if rounded.IsNegative() || rounded.GreaterThan(maxAmount) {
		return Money{}, fmt.Errorf("%w: %s", domain.ErrAmountOutOfRange, rounded.StringFixed(2))
	}
	return Money{amount: rounded}, nil
}

// NewMoneyFromString construye un Money desde una cadena decimal ("199.90").
func NewMoneyFromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q no es un monto decimal", domain.ErrInvalidInput, s)
	}
	return NewMoney(d)
}

// Amount devuelve el valor decimal subyacente.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Add suma dos montos; falla si el resultado supera el tope.
func (m Money) Add(other Money) (Money, error) {
	return NewMoney(m.amount.Add(other.amount))
}

// Sub resta un monto; falla si el resultado sería negativo.
func (m Money) Sub(other Money) (Money, error) {
	return NewMoney(m.amount.Sub(other.amount))
}

// MulInt multiplica por una cantidad entera (ej. precio unitario x cantidad).
func (m Money) MulInt(quantity int) (Money, error) {
	return NewMoney(m.amount.Mul(decimal.NewFromInt(int64(quantity))))
}

// MulScalar multiplica por un escalar decimal.
func (m Money) MulScalar(factor decimal.Decimal) (Money, error) {
	return NewMoney(m.amount.Mul(factor))
}

// DivScalar divide por un escalar decimal; falla con ErrInvalidInput si el divisor es cero.
func (m Money) DivScalar(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, fmt.Errorf("%w: división por cero", domain.ErrInvalidInput)
	}
	return NewMoney(m.amount.Div(divisor))
}

// Cmp orden total por valor: -1 si m < other, 0 si iguales, 1 si m > other.
func (m Money) Cmp(other Money) int { return m.amount.Cmp(other.amount) }

// Equal igualdad por valor.
func (m Money) Equal(other Money) bool { return m.amount.Equal(other.amount) }

// LessThan true si m < other.
func (m Money) LessThan(other Money) bool { return m.amount.LessThan(other.amount) }

// GreaterThan true si m > other.
func (m Money) GreaterThan(other Money) bool { return m.amount.GreaterThan(other.amount) }

// IsZero true si el monto es cero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// FormatPlain cadena numérica con dos decimales y punto decimal ("1234.56").
func (m Money) FormatPlain() string { return m.amount.StringFixed(2) }

// FormatBRL formato monetario brasileño ("R$ 1.234,56").
func (m Money) FormatBRL() string {
	f, _ := m.amount.Float64()
	return brPrinter.Sprintf("R$ %.2f", f)
}

// String usa el formato localizado.
func (m Money) String() string { return m.FormatBRL() }
