package qrcode

import (
	"strings"
	"testing"

	"qrlink-go/internal/apperrors"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want Level
		ok   bool
	}{
		{"", LevelM, true},
		{"L", LevelL, true},
		{"M", LevelM, true},
		{"Q", LevelQ, true},
		{"H", LevelH, true},
		{"X", "", false},
		{"l", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseLevel(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseLevel(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEffectiveLevelForcesHWithLogo(t *testing.T) {
	for _, lvl := range []Level{LevelL, LevelM, LevelQ, LevelH} {
		if got := EffectiveLevel(lvl, true); got != LevelH {
			t.Errorf("EffectiveLevel(%q, logo) = %q, want H", lvl, got)
		}
		if got := EffectiveLevel(lvl, false); got != lvl {
			t.Errorf("EffectiveLevel(%q, no logo) = %q, want %q", lvl, got, lvl)
		}
	}
}

func TestEncodeBasic(t *testing.T) {
	m, err := Encode("https://example.com", LevelM, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if m.ModuleCount < 21 {
		t.Errorf("module count = %d, smallest version is 21", m.ModuleCount)
	}
	if len(m.Modules) != m.ModuleCount {
		t.Errorf("matrix has %d rows, module count says %d", len(m.Modules), m.ModuleCount)
	}
	for i, row := range m.Modules {
		if len(row) != m.ModuleCount {
			t.Fatalf("row %d has %d columns, want %d", i, len(row), m.ModuleCount)
		}
	}
	if m.Level != LevelM {
		t.Errorf("matrix level = %q, want M", m.Level)
	}
}

func TestEncodeLogoForcesH(t *testing.T) {
	m, err := Encode("hello", LevelL, true)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if m.Level != LevelH {
		t.Errorf("matrix level with logo = %q, want H", m.Level)
	}
}

func TestEncodeVersionGrowsWithContent(t *testing.T) {
	small, err := Encode("a", LevelM, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	big, err := Encode(strings.Repeat("a", 500), LevelM, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if big.ModuleCount <= small.ModuleCount {
		t.Errorf("larger content should pick a larger version: %d <= %d", big.ModuleCount, small.ModuleCount)
	}
}

func TestEncodeEmptyContent(t *testing.T) {
	_, err := Encode("", LevelM, false)
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("empty content should be a validation error, got %v", err)
	}
}

func TestEncodeCapacityExceeded(t *testing.T) {
	// H 等级下二进制模式上限 1273 字节，远超则必然失败
	_, err := Encode(strings.Repeat("\x01", 3000), LevelH, false)
	if err == nil {
		t.Fatal("expected capacity error for oversized content")
	}
	if apperrors.KindOf(err) != apperrors.KindCapacity {
		t.Fatalf("error kind = %v, want KindCapacity", apperrors.KindOf(err))
	}
}
