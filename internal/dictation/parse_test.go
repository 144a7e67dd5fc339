package dictation

import (
	"reflect"
	"testing"

	"cuadrilla/internal/attendance"
)

func TestParseUtteranceKeywordDigitsStatus(t *testing.T) {
	tests := []struct {
		utterance string
		want      string
	}{
		{"dni 12345678 presente", "12345678"},
		{"documento: 0012345 presente", "12345"},
		{"cédula 98765 present", "98765"},
		{"CPF 123456789012 presente.", "123456789012"},
		{"id 00000000012345 presente", "12345"},
	}
	for _, tt := range tests {
		got := ParseUtterance(tt.utterance)
		want := []Pair{{DocumentID: tt.want, Status: attendance.StatusPresent}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ParseUtterance(%q) = %#v, want %#v", tt.utterance, got, want)
		}
	}
}

func TestParseUtteranceRejectsShortIdentifiers(t *testing.T) {
	for _, utterance := range []string{"dni 1234 presente", "dni 0001234 presente", "presente"} {
		if got := ParseUtterance(utterance); len(got) != 0 {
			t.Errorf("ParseUtterance(%q) = %#v, want none", utterance, got)
		}
	}
}

func TestParseUtteranceLastStatusWins(t *testing.T) {
	got := ParseUtterance("id 12345 present id 12345 absent")
	want := []Pair{{DocumentID: "12345", Status: attendance.StatusAbsent}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseUtteranceKeepsFirstAppearanceOrder(t *testing.T) {
	got := ParseUtterance("dni 11111 presente dni 22222 ausente dni 11111 falta")
	want := []Pair{
		{DocumentID: "11111", Status: attendance.StatusAbsent},
		{DocumentID: "22222", Status: attendance.StatusAbsent},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseUtteranceSpacedDigits(t *testing.T) {
	got := ParseUtterance("id 1 2 3 4 5 present id 9 9 9 9 9 absent")
	want := []Pair{
		{DocumentID: "12345", Status: attendance.StatusPresent},
		{DocumentID: "99999", Status: attendance.StatusAbsent},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseUtteranceIgnoresFillers(t *testing.T) {
	got := ParseUtterance("bien el dni de 12 punto 345 coma 678 está presente y cargando")
	want := []Pair{{DocumentID: "12345678", Status: attendance.StatusPresent}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseUtteranceCheckDigit(t *testing.T) {
	got := ParseUtterance("rut 1 2 345 678 k ausente")
	want := []Pair{{DocumentID: "12345678K", Status: attendance.StatusAbsent}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseUtteranceAlphanumeric(t *testing.T) {
	got := ParseUtterance("curp gomj 800101 hdf presente")
	want := []Pair{{DocumentID: "GOMJ800101HDF", Status: attendance.StatusPresent}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseUtteranceStatusResetsMode(t *testing.T) {
	// After the status word the machine is numeric again, so the letters of
	// "abc" are dropped and only digits accumulate.
	got := ParseUtterance("curp abcdef1 presente abc 55555 ausente")
	want := []Pair{
		{DocumentID: "ABCDEF1", Status: attendance.StatusPresent},
		{DocumentID: "55555", Status: attendance.StatusAbsent},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseUtteranceRejectedIDStillResetsMode(t *testing.T) {
	// "123" is too short to emit, yet the status word still ends the rut
	// capture, so the trailing k is not a check digit.
	got := ParseUtterance("rut 123 presente 1234567 k ausente")
	want := []Pair{{DocumentID: "1234567", Status: attendance.StatusAbsent}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
}

func TestParseFallsBackForPunctuatedRut(t *testing.T) {
	res := Parse("rut 12.345.678-k presente")
	if !res.Fallback {
		t.Fatal("expected fallback extractor to run")
	}
	want := []Pair{{DocumentID: "12345678", Status: attendance.StatusPresent}}
	if !reflect.DeepEqual(res.Pairs, want) {
		t.Fatalf("got %#v, want %#v", res.Pairs, want)
	}
}

func TestParsePrefersStateMachine(t *testing.T) {
	res := Parse("dni 12345678 presente")
	if res.Fallback {
		t.Fatal("fallback must not run when the machine yields pairs")
	}
	if len(res.Pairs) != 1 {
		t.Fatalf("got %#v", res.Pairs)
	}
}

func TestParseReportsPartialWithoutStatus(t *testing.T) {
	res := Parse("dni 12345678")
	if len(res.Pairs) != 0 {
		t.Fatalf("expected no pairs, got %#v", res.Pairs)
	}
	if res.Partial.DocumentID != "12345678" || res.Partial.Status != "" {
		t.Fatalf("unexpected partial %#v", res.Partial)
	}
}
