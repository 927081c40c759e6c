package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"

	"qrlink-go/internal/apperrors"
	"qrlink-go/internal/breaker"
	"qrlink-go/internal/qrcode"
	"qrlink-go/pkg/logging"
)

func newTestGeneration(t *testing.T, b *breaker.Breaker) *GenerationService {
	t.Helper()
	logging.InitTestLogger()

	pool, err := ants.NewPool(2)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Release)

	if b == nil {
		b = breaker.New(5, time.Minute, &breaker.Options{IsFailure: IsBreakerFailure})
	}
	return NewGenerationService(b, pool, nil, NewFileAssetLoader(t.TempDir()))
}

func TestGenerateHappyPath(t *testing.T) {
	s := newTestGeneration(t, nil)

	res, err := s.Generate(context.Background(), "https://example.com", "M", false, "", &qrcode.Params{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.MIME != qrcode.MIMEPNG {
		t.Errorf("default MIME = %q, want image/png", res.MIME)
	}
	if _, err := png.Decode(bytes.NewReader(res.Data)); err != nil {
		t.Errorf("output is not valid PNG: %v", err)
	}
}

func TestGenerateInvalidLevel(t *testing.T) {
	s := newTestGeneration(t, nil)

	_, err := s.Generate(context.Background(), "hello", "Z", false, "", &qrcode.Params{})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("expected validation error for bad level, got %v", err)
	}
}

func TestGenerateValidationDoesNotTouchBreaker(t *testing.T) {
	b := breaker.New(1, time.Minute, &breaker.Options{IsFailure: IsBreakerFailure})
	s := newTestGeneration(t, b)

	// 阈值为 1：任何一次计入的失败都会打开熔断器
	bad := []*qrcode.Params{
		{Format: "gif"},
		{Size: 99},
		{FillColor: "#000000", BackColor: "#000000"},
	}
	for _, p := range bad {
		if _, err := s.Generate(context.Background(), "hello", "M", false, "", p); err == nil {
			t.Fatal("expected validation error")
		}
	}

	if b.State() != breaker.StateClosed {
		t.Fatal("validation failures must not trip the breaker")
	}
	if b.FailureCount() != 0 {
		t.Fatalf("breaker failure count = %d after validation errors, want 0", b.FailureCount())
	}
}

func TestGenerateCapacityDoesNotTouchBreaker(t *testing.T) {
	b := breaker.New(1, time.Minute, &breaker.Options{IsFailure: IsBreakerFailure})
	s := newTestGeneration(t, b)

	_, err := s.Generate(context.Background(), strings.Repeat("\x01", 3000), "H", false, "", &qrcode.Params{})
	if apperrors.KindOf(err) != apperrors.KindCapacity {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if b.State() != breaker.StateClosed {
		t.Fatal("capacity errors must not trip the breaker")
	}
}

func TestGenerateShortCircuitWhenOpen(t *testing.T) {
	b := breaker.New(1, time.Minute, &breaker.Options{IsFailure: IsBreakerFailure})
	s := newTestGeneration(t, b)

	// 人为触发一次计入的失败，打开熔断器
	_ = b.Do(func() error { return errors.New("render backend down") })
	if b.State() != breaker.StateOpen {
		t.Fatal("breaker should be open")
	}

	_, err := s.Generate(context.Background(), "hello", "M", false, "", &qrcode.Params{})
	if apperrors.KindOf(err) != apperrors.KindServiceUnavailable {
		t.Fatalf("expected service unavailable while open, got %v", err)
	}
}

func TestGenerateWithLogoAsset(t *testing.T) {
	s := newTestGeneration(t, nil)

	// 写入一个可用的 PNG Logo 资源
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.NRGBA{B: 0xff, A: 0xff}}, image.Point{}, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode logo: %v", err)
	}
	dir := s.assets.(*FileAssetLoader).Dir
	if err := os.WriteFile(filepath.Join(dir, "logo.png"), buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write logo: %v", err)
	}

	res, err := s.Generate(context.Background(), "hello", "L", true, "logo.png", &qrcode.Params{})
	if err != nil {
		t.Fatalf("Generate with logo failed: %v", err)
	}
	if res.LogoSkipped {
		t.Error("raster logo must not be skipped")
	}
}

func TestGenerateMissingLogoAsset(t *testing.T) {
	s := newTestGeneration(t, nil)

	_, err := s.Generate(context.Background(), "hello", "M", true, "missing.png", &qrcode.Params{})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Fatalf("missing logo asset should be a validation error, got %v", err)
	}
}

func TestGenerateSVGLogoDegradesWithoutConversion(t *testing.T) {
	s := newTestGeneration(t, nil)
	if !s.Degraded() {
		t.Fatal("service without converter should report degraded")
	}

	dir := s.assets.(*FileAssetLoader).Dir
	if err := os.WriteFile(filepath.Join(dir, "logo.svg"),
		[]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), 0o644); err != nil {
		t.Fatalf("write logo: %v", err)
	}

	res, err := s.Generate(context.Background(), "hello", "M", true, "logo.svg", &qrcode.Params{Format: "png"})
	if err != nil {
		t.Fatalf("Generate should degrade, not fail: %v", err)
	}
	if !res.LogoSkipped {
		t.Error("expected LogoSkipped in degraded mode")
	}
}
