package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/signintech/gopdf"

	"healthtrack/internal/ledger"
)

// DefaultFontPaths are tried in order when no font is configured.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const (
	fontFamily = "DejaVu"
	textWidth  = 500
)

type Service struct {
	fontPaths []string
	log       zerolog.Logger
}

// NewService renders with the font at fontPath, falling back to the
// DejaVu locations of common distributions when it is empty.
func NewService(fontPath string, log zerolog.Logger) *Service {
	paths := DefaultFontPaths
	if fontPath != "" {
		paths = []string{fontPath}
	}
	return &Service{fontPaths: paths, log: log.With().Str("component", "report").Logger()}
}

// Render produces the consultation summary PDF for a ledger entry.
func (s *Service) Render(e *ledger.Entry) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	if err := s.loadFont(&pdf); err != nil {
		return nil, err
	}

	if err := pdf.SetFont(fontFamily, "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "Consultation Summary")
	pdf.Br(30)

	if err := pdf.SetFont(fontFamily, "", 12); err != nil {
		return nil, err
	}
	for _, line := range []string{
		fmt.Sprintf("Date: %s", e.CompletionDate),
		fmt.Sprintf("Patient: %s (%s)", e.Name, e.Username),
		fmt.Sprintf("Age: %d, Gender: %s", e.Age, e.Gender),
		fmt.Sprintf("Contact: %s", orNA(e.Contact)),
		fmt.Sprintf("Email: %s", orNA(e.Email)),
		fmt.Sprintf("Conditions: %s", orNA(e.Conditions)),
	} {
		pdf.Cell(nil, line)
		pdf.Br(15)
	}
	pdf.Br(10)

	if err := s.section(&pdf, "Advice", e.Advice); err != nil {
		return nil, err
	}
	if err := s.section(&pdf, "Prescription / Notes", e.Prescription); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	s.log.Debug().Str("consultation_id", e.ID.String()).Int("bytes", buf.Len()).Msg("report rendered")
	return buf.Bytes(), nil
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	var fontErr error
	for _, path := range s.fontPaths {
		err := pdf.AddTTFFont(fontFamily, path)
		if err == nil {
			return nil
		}
		fontErr = err
	}
	s.log.Error().Err(fontErr).Strs("paths", s.fontPaths).Msg("no usable report font")
	return fmt.Errorf("failed to load font for PDF, last error: %w", fontErr)
}

func (s *Service) section(pdf *gopdf.GoPdf, title, body string) error {
	if err := pdf.SetFont(fontFamily, "", 14); err != nil {
		return err
	}
	pdf.Cell(nil, title+":")
	pdf.Br(15)
	if err := pdf.SetFont(fontFamily, "", 11); err != nil {
		return err
	}
	for _, paragraph := range strings.Split(orNA(body), "\n") {
		lines, err := pdf.SplitText(paragraph, textWidth)
		if err != nil {
			lines = []string{paragraph}
		}
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
	}
	pdf.Br(15)
	return nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
