package domain

import "time"

// ExpirationRule define cómo se elige la fecha de vencimiento del contrato.
type ExpirationRule string

const (
	// ExpireNextTradingDay vence el siguiente día hábil (salta sábado y domingo).
	ExpireNextTradingDay ExpirationRule = "next_trading_day"
	// ExpireNextFriday vence el viernes ≥ fecha de análisis.
	ExpireNextFriday ExpirationRule = "next_friday"
)

// FridayRule resuelve la ambigüedad de ExpireNextFriday cuando el día de
// análisis ya es viernes: vencimiento el mismo día (0DTE) o rodar una semana.
type FridayRule string

const (
	FridaySameDay  FridayRule = "same_day"  // 0DTE: buscar opciones que vencen HOY
	FridayNextWeek FridayRule = "next_week" // rodar al viernes siguiente
)

// NextTradingDay devuelve el siguiente día de calendario saltando fin de semana.
// No considera festivos bursátiles: el feed simplemente no tendrá velas esos días.
func NextTradingDay(d time.Time) time.Time {
	next := d.AddDate(0, 0, 1)
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// ExpirationDate calcula la fecha de vencimiento según la regla del ticker.
func ExpirationDate(analysisDate time.Time, rule ExpirationRule, friday FridayRule) time.Time {
	if rule == ExpireNextTradingDay {
		return NextTradingDay(analysisDate)
	}

	wd := analysisDate.Weekday()
	switch {
	case wd == time.Friday:
		if friday == FridayNextWeek {
			return analysisDate.AddDate(0, 0, 7)
		}
		return analysisDate // 0DTE
	case wd == time.Saturday:
		return analysisDate.AddDate(0, 0, 6)
	case wd == time.Sunday:
		return analysisDate.AddDate(0, 0, 5)
	default:
		return analysisDate.AddDate(0, 0, int(time.Friday-wd))
	}
}
