package orders

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	// DefaultMinAmount минимальная заявка в Robux.
	DefaultMinAmount = 10

	CommissionRate = 0.30
	RateFunPay     = 0.37
	RateDirect     = 0.30

	lotAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	lotLength   = 6
)

var (
	ErrNotInteger   = errors.New("orders: amount is not an integer")
	ErrBelowMinimum = errors.New("orders: amount below minimum")
)

// ParseAmount разбирает ввод количества. Пробелы по краям, знак и
// одиночные "_" между цифрами ("1_000") допускаются.
func ParseAmount(text string, minAmount int) (int64, error) {
	digits, ok := stripDigitGroups(strings.TrimSpace(text))
	if !ok {
		return 0, ErrNotInteger
	}
	amount, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	if amount < int64(minAmount) {
		return amount, ErrBelowMinimum
	}
	return amount, nil
}

// stripDigitGroups убирает "_", если каждый стоит между двумя цифрами.
func stripDigitGroups(s string) (string, bool) {
	if !strings.Contains(s, "_") {
		return s, true
	}
	isDigit := func(c byte) bool { return c >= '0' && c <= '9' }
	for i := 0; i < len(s); i++ {
		if s[i] != '_' {
			continue
		}
		if i == 0 || i == len(s)-1 || !isDigit(s[i-1]) || !isDigit(s[i+1]) {
			return "", false
		}
	}
	return strings.ReplaceAll(s, "_", ""), true
}

// Lot существует только пока собираются сообщения о заявке, нигде не хранится.
type Lot struct {
	Code            string
	Amount          int64
	AfterCommission int64
}

func NewLot(code string, amount int64) Lot {
	return Lot{Code: code, Amount: amount, AfterCommission: AfterCommission(amount)}
}

// AfterCommission = floor(amount * 0.7) в целых, без погрешности float.
func AfterCommission(amount int64) int64 {
	return amount/10*7 + amount%10*7/10
}

// PriceFunPay цена через FunPay, две цифры после запятой.
func (l Lot) PriceFunPay() string {
	return fmt.Sprintf("%.2f", float64(l.AfterCommission)*RateFunPay)
}

// PriceDirect цена при сделке напрямую.
func (l Lot) PriceDirect() string {
	return fmt.Sprintf("%.2f", float64(l.AfterCommission)*RateDirect)
}

// CodeSource источник случайных индексов для номера лота.
type CodeSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultCodeSource общий генератор math/rand/v2.
var DefaultCodeSource CodeSource = globalSource{}

// NewCode "#" + 6 символов из A-Z0-9. Уникальность не проверяется.
func NewCode(src CodeSource) string {
	if src == nil {
		src = DefaultCodeSource
	}
	var b strings.Builder
	b.Grow(lotLength + 1)
	b.WriteByte('#')
	for i := 0; i < lotLength; i++ {
		b.WriteByte(lotAlphabet[src.IntN(len(lotAlphabet))])
	}
	return b.String()
}
