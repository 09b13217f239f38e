package money

import (
	"strings"

	gomoney "github.com/Rhymond/go-money"
)

// Format renders m for display in the given ISO currency, rounded half-to-even
// to the currency's minor unit and laid out with its grapheme and separators.
// Unknown currency codes fall back to the plain fixed-scale string suffixed
// with the code.
func Format(m Money, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	cur := gomoney.GetCurrency(code)
	if cur == nil {
		if code == "" {
			return m.String()
		}
		return m.String() + " " + code
	}
	minor := m.d.RoundBank(int32(cur.Fraction)).Shift(int32(cur.Fraction))
	return cur.Formatter().Format(minor.IntPart())
}
