// Package receipt reads the total off a photographed receipt or transfer
// slip. The image is cleaned up with imaging, read with Tesseract and the
// most plausible amount is picked from the text.
package receipt

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

const (
	amountWhitelist = "0123456789RpIDRidrTOTALtotalJUMLAHjumlahribu.,:()/- "
	digitWhitelist  = "0123456789., "
	minOCRHeight    = 900
	targetOCRHeight = 1300
)

// Scanner runs OCR passes over receipt images. It holds no Tesseract state
// between calls and is safe for concurrent use.
type Scanner struct {
	logger *slog.Logger
}

func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{logger: logger}
}

// Scan reads the image at path and suggests its amount. ErrNoAmount is
// returned when the text holds nothing that looks like money.
func (s *Scanner) Scan(ctx context.Context, path string) (Suggestion, string, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return Suggestion{}, "", fmt.Errorf("open image: %w", err)
	}
	prepared, err := writeTemp(preprocess(img))
	if err != nil {
		return Suggestion{}, "", err
	}
	defer os.Remove(prepared)

	var texts []string
	for _, pass := range []struct {
		image     string
		whitelist string
	}{
		{prepared, amountWhitelist},
		{prepared, digitWhitelist},
		{path, ""},
	} {
		if err := ctx.Err(); err != nil {
			return Suggestion{}, "", err
		}
		text, err := ocr(pass.image, pass.whitelist)
		if err != nil {
			s.logger.WarnContext(ctx, "ocr pass failed", "path", path, "error", err)
			continue
		}
		texts = append(texts, normalizeText(text))
	}
	all := strings.Join(texts, " ")
	if strings.TrimSpace(all) == "" {
		return Suggestion{}, "", ErrNoAmount
	}

	sug, err := BestAmount(all)
	if err != nil {
		s.logger.DebugContext(ctx, "no amount in receipt", "path", path, "text", snippet(all, 160))
		return Suggestion{}, all, err
	}
	s.logger.DebugContext(ctx, "receipt scanned", "path", path, "raw", sug.Raw,
		"amount", sug.Amount.String(), "confidence", sug.Confidence)
	return sug, all, nil
}

// preprocess makes the text dark on white and tall enough for Tesseract.
func preprocess(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 15)
	out = imaging.Sharpen(out, 0.7)
	if out.Bounds().Dy() < minOCRHeight {
		out = imaging.Resize(out, 0, targetOCRHeight, imaging.Lanczos)
	}
	return binarize(out, 210)
}

// binarize maps every pixel at or below threshold to black, the rest to white.
func binarize(img *image.NRGBA, threshold uint8) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 0; i+3 < len(out.Pix); i += 4 {
		gray := uint8((uint16(out.Pix[i]) + uint16(out.Pix[i+1]) + uint16(out.Pix[i+2])) / 3)
		v := uint8(255)
		if gray <= threshold {
			v = 0
		}
		out.Pix[i], out.Pix[i+1], out.Pix[i+2], out.Pix[i+3] = v, v, v, 255
	}
	return out
}

func writeTemp(img image.Image) (string, error) {
	f, err := os.CreateTemp("", "receipt-*.png")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	name := f.Name()
	_ = f.Close()
	if err := imaging.Save(img, name); err != nil {
		os.Remove(name)
		return "", fmt.Errorf("save preprocessed image: %w", err)
	}
	return name, nil
}

func ocr(path, whitelist string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage("eng"); err != nil {
		return "", err
	}
	if whitelist != "" {
		if err := client.SetWhitelist(whitelist); err != nil {
			return "", err
		}
	}
	if err := client.SetImage(path); err != nil {
		return "", err
	}
	return client.Text()
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
