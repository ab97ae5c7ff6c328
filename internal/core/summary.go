package core

// Months is the fixed chronological order used when charting by month.
var Months = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthIndex returns the 0-based position of a month name, or -1.
func MonthIndex(name string) int {
	for i, m := range Months {
		if m == name {
			return i
		}
	}
	return -1
}

// MonthAmount is a commission total for one month.
type MonthAmount struct {
	Month  string
	Amount Money
}

// CompanyCount is the number of contracts placed with one provider.
type CompanyCount struct {
	Company string
	Count   int
}

// Summary holds the headline cards of the dashboard.
type Summary struct {
	TotalCommission Money
	Contracts       int
	Active          int // ESTADO Activado or Cargado
	Cancellations   int // TIPO CONTRATO Baja
}
