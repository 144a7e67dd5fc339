package dictation

import "cuadrilla/internal/attendance"

// Mode selects how chunks accumulate into the identifier buffer.
type Mode int

const (
	// ModeNumeric keeps only digits.
	ModeNumeric Mode = iota
	// ModeCheckDigit keeps digits plus a single trailing K check digit.
	ModeCheckDigit
	// ModeAlphanumeric keeps letters and digits.
	ModeAlphanumeric
)

func (m Mode) String() string {
	switch m {
	case ModeCheckDigit:
		return "check-digit"
	case ModeAlphanumeric:
		return "alphanumeric"
	default:
		return "numeric"
	}
}

// keywords maps identifier keywords to the mode they select.
var keywords = map[string]Mode{
	"rut": ModeCheckDigit,
	"run": ModeCheckDigit,

	"curp": ModeAlphanumeric,
	"rfc":  ModeAlphanumeric,

	"dni":       ModeNumeric,
	"documento": ModeNumeric,
	"cedula":    ModeNumeric,
	"ci":        ModeNumeric,
	"identidad": ModeNumeric,
	"cpf":       ModeNumeric,
	"rg":        ModeNumeric,
	"id":        ModeNumeric,
}

var statusWords = map[string]attendance.Status{
	"presente": attendance.StatusPresent,
	"present":  attendance.StatusPresent,
	"ausente":  attendance.StatusAbsent,
	"absent":   attendance.StatusAbsent,
	"falta":    attendance.StatusAbsent,
	"falto":    attendance.StatusAbsent,
}

// fillers are ignored wherever they appear, including spelled-out numbers.
var fillers = setOf(
	"y", "con", "coma", "punto", "de", "del", "el", "la",
	"cero", "uno", "una", "dos", "tres", "cuatro", "cinco", "seis", "siete", "ocho", "nueve",
	"diez", "once", "doce", "trece", "catorce", "quince",
	"veinte", "treinta", "cuarenta", "cincuenta", "sesenta", "setenta", "ochenta", "noventa",
	"cien", "ciento", "doscientos", "trescientos", "cuatrocientos", "quinientos",
	"seiscientos", "setecientos", "ochocientos", "novecientos",
	"mil", "millon", "millones", "billon", "billones",
	"bien", "esta", "cargando",
)

func setOf(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Keywords returns the recognized identifier keywords and their modes.
func Keywords() map[string]Mode {
	out := make(map[string]Mode, len(keywords))
	for k, v := range keywords {
		out[k] = v
	}
	return out
}
