package receipt

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"10.000,00", "10000"},
		{"7,500.00", "7500"},
		{"Rp40.000", "40000"},
		{"TOTAL Rp 1.250.000,50", "1250000.50"},
		{"IDR 12,50", "12.50"},
		{"150000", "150000"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseAmount(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected %s got %s", tt.want, got)
			}
		})
	}
	if _, err := ParseAmount("Rp"); !errors.Is(err, ErrNoAmount) {
		t.Fatalf("expected ErrNoAmount, got %v", err)
	}
}

func TestBestAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"total beats larger amount", "Rp50.000 TOTAL Rp40.000", "40000"},
		{"phone number ignored", "Telp 081234567890 Total 25.500", "25500"},
		{"reference id ignored", "Ref 250903 Rp 150.000,00", "150000"},
		{"transfer slip", "Transfer Berhasil\nJumlah Transfer Rp 600.000\nBiaya Rp 0", "600000"},
		{"ribu fallback", "bayar 400 ribu", "400000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BestAmount(tt.text)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("expected %s got %s (raw %q)", tt.want, got.Amount, got.Raw)
			}
			if got.Confidence <= 0 || got.Confidence > 1 {
				t.Fatalf("confidence out of range: %v", got.Confidence)
			}
		})
	}
}

func TestBestAmountNothingFound(t *testing.T) {
	for _, text := range []string{"", "THANK YOU", "0812 3456"} {
		if _, err := BestAmount(text); !errors.Is(err, ErrNoAmount) {
			t.Fatalf("%q: expected ErrNoAmount, got %v", text, err)
		}
	}
}

func TestCandidatesSkipOverlaps(t *testing.T) {
	got := Candidates("Subtotal Rp 20.000 TOTAL Rp 22.000")
	want := []string{"total Rp 20.000", "TOTAL Rp 22.000"}
	if len(got) != len(want) {
		t.Fatalf("expected %v got %v", want, got)
	}
}

func TestBinarize(t *testing.T) {
	img := imaging.New(2, 1, color.NRGBA{255, 255, 255, 255})
	img.Set(0, 0, color.NRGBA{40, 40, 40, 255})
	out := binarize(img, 128)
	if c := out.NRGBAAt(0, 0); c.R != 0 {
		t.Fatalf("dark pixel must turn black, got %v", c)
	}
	if c := out.NRGBAAt(1, 0); c.R != 255 {
		t.Fatalf("light pixel must stay white, got %v", c)
	}
	if pre := preprocess(image.NewGray(image.Rect(0, 0, 10, 10))); pre.Bounds().Dy() != targetOCRHeight {
		t.Fatalf("small images must be upscaled, got height %d", pre.Bounds().Dy())
	}
}
