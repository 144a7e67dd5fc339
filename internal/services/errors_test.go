package services_test

import (
	"errors"
	"strings"
	"testing"

	"cuadrilla/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "attendance", "upsert", "write failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"attendance", "upsert", "write failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestIsClientError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{services.Wrap(services.ErrValidation, "api", "mark", "status required", nil), true},
		{services.Wrap(services.ErrNotFound, "api", "mark", "site 9", nil), true},
		{services.Wrap(services.ErrConflict, "api", "register", "duplicate", nil), true},
		{services.Wrap(services.ErrTransient, "store", "upsert", "", errors.New("io")), false},
		{errors.New("plain"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := services.IsClientError(tc.err); got != tc.want {
			t.Fatalf("IsClientError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
