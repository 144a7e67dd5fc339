package dictation

import (
	"testing"

	"cuadrilla/internal/attendance"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		wantID    string
		want      attendance.Status
		complete  bool
	}{
		{"punctuated rut", "rut 12.345.678-k presente", "12345678", attendance.StatusPresent, true},
		{"last keyword governs", "dni 999 rut 11.222.333 ausente", "11222333", attendance.StatusAbsent, true},
		{"no keyword uses whole prefix", "el 0045.678 falta", "45678", attendance.StatusAbsent, true},
		{"alphanumeric family", "rfc gomj-800101 presente", "GOMJ800101", attendance.StatusPresent, true},
		{"tokens after status ignored", "dni presente 12345678", "", attendance.StatusPresent, false},
		{"identifier without status", "cedula 12.345.678", "12345678", "", false},
		{"too short", "dni 12.34 presente", "", attendance.StatusPresent, false},
		{"keyword after status", "12.345.678 presente dni", "12345678", attendance.StatusPresent, true},
		{"nothing", "hola", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.utterance)
			if got.DocumentID != tt.wantID || got.Status != tt.want || got.Complete() != tt.complete {
				t.Fatalf("Extract(%q) = %#v", tt.utterance, got)
			}
		})
	}
}
