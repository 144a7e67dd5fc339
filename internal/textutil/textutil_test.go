package textutil

import "testing"

func TestFoldAccents(t *testing.T) {
	tests := map[string]string{
		"Cédula":   "cedula",
		"AUSENTE":  "ausente",
		"Faltó":    "falto",
		"millón":   "millon",
		"12345678": "12345678",
	}
	for input, want := range tests {
		if got := FoldAccents(input); got != want {
			t.Errorf("FoldAccents(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestTrimEdgePunct(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"presente.", "presente"},
		{"¿rut?", "rut"},
		{"12.345.678-k", "12.345.678-k"},
		{"...", ""},
	}
	for _, tt := range tests {
		if got := TrimEdgePunct(tt.in); got != tt.want {
			t.Errorf("TrimEdgePunct(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestKeepHelpers(t *testing.T) {
	if got := KeepAlnum("12.345.678-k"); got != "12345678k" {
		t.Fatalf("KeepAlnum = %q", got)
	}
	if got := KeepDigits("12.345.678-k"); got != "12345678" {
		t.Fatalf("KeepDigits = %q", got)
	}
	if !IsDigits("0042") || IsDigits("") || IsDigits("12a") {
		t.Fatal("IsDigits misclassified input")
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  juan   pérez ", "Juan Pérez"},
		{"MARÍA JOSÉ", "María José"},
		{"12345678k", "12345678K"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.in); got != tt.want {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Obra Norte", "obra_norte"},
		{"Faena Ñuñoa", "faena_nunoa"},
		{"  ", "unknown"},
		{"***", "unknown"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
