package money

import "github.com/shopspring/decimal"

// defaultMinorUnits applies to every currency not listed in minorUnits.
const defaultMinorUnits = 2

// minorUnits lists ISO 4217 currencies whose minor unit differs from 2.
var minorUnits = map[string]int32{
	// zero-decimal
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "UYI": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0,
	"XPF": 0,
	// three-decimal
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

var symbols = map[string]string{
	"USD": "$", "CAD": "C$", "AUD": "A$", "NZD": "NZ$", "HKD": "HK$", "SGD": "S$",
	"MXN": "MX$", "BRL": "R$", "EUR": "€", "GBP": "£", "JPY": "¥", "CNY": "CN¥",
	"KRW": "₩", "INR": "₹", "RUB": "₽", "TRY": "₺", "ILS": "₪", "VND": "₫",
	"PHP": "₱", "THB": "฿", "UAH": "₴", "NGN": "₦", "PLN": "zł", "CHF": "CHF",
	"MYR": "RM", "IDR": "Rp", "ZAR": "R",
}

// Precision returns the number of minor-unit digits for currency.
func Precision(currency string) int32 {
	if p, ok := minorUnits[normalize(currency)]; ok {
		return p
	}
	return defaultMinorUnits
}

// Step returns the smallest amount a user can enter for currency: 1 for
// zero-decimal currencies such as JPY, 0.01 for most others.
func Step(currency string) decimal.Decimal {
	return decimal.New(1, -Precision(currency))
}

// Symbol returns the display symbol for currency and whether one is known.
func Symbol(currency string) (string, bool) {
	s, ok := symbols[normalize(currency)]
	return s, ok
}
