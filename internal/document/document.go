// Package document turns uploaded resumes into plain text.
package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/spigell/eb1-screener/internal/logger"
)

// PlaceholderText stands in for a document whose text could not be read.
const PlaceholderText = "The applicant uploaded a resume, but its text could not be extracted."

const defaultMaxBytes = 10 << 20

// ErrTooLarge is returned when a document exceeds the configured size.
var ErrTooLarge = errors.New("document too large")

// Extraction is the text recovered from a document. When Placeholder is set
// Text holds PlaceholderText and Note explains why.
type Extraction struct {
	Text        string `json:"text"`
	Placeholder bool   `json:"placeholder"`
	Note        string `json:"note,omitempty"`
	MIME        string `json:"mime"`
}

type Extractor struct {
	maxBytes int64
	logger   *zap.Logger
}

func NewExtractor(maxBytes int64, logger *zap.Logger) *Extractor {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{maxBytes: maxBytes, logger: logger}
}

func (e *Extractor) MaxBytes() int64 { return e.maxBytes }

// Extract reads r and returns its text. Unsupported or unreadable content is
// not an error; it yields a placeholder Extraction. Errors are reserved for
// read failures and ErrTooLarge.
func (e *Extractor) Extract(ctx context.Context, name string, r io.Reader) (Extraction, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return Extraction{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if int64(len(data)) > e.maxBytes {
		return Extraction{}, fmt.Errorf("%s: %w (limit %d bytes)", name, ErrTooLarge, e.maxBytes)
	}

	log := logger.FromContext(ctx, e.logger).With(zap.String("document", name), zap.Int("size", len(data)))

	if len(bytes.TrimSpace(data)) == 0 {
		return placeholder("", "document is empty"), nil
	}

	mt := mimetype.Detect(data)
	log = log.With(zap.String("mime", mt.String()))

	var (
		text string
		note string
	)
	switch {
	case mt.Is("application/pdf"):
		text, err = pdfText(data)
		if err != nil {
			log.Warn("pdf text extraction failed", zap.Error(err))
			return placeholder(mt.String(), "pdf could not be read: "+err.Error()), nil
		}
		note = "no text layer found in pdf"
	case mt.Is("text/plain"):
		text = string(data)
		note = "text document is blank"
	default:
		log.Info("unsupported document type")
		return placeholder(mt.String(), "unsupported document type "+mt.String()), nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return placeholder(mt.String(), note), nil
	}

	log.Debug("document text extracted", zap.Int("text_length", len(text)))
	return Extraction{Text: text, MIME: mt.String()}, nil
}

func placeholder(mime, note string) Extraction {
	return Extraction{Text: PlaceholderText, Placeholder: true, Note: note, MIME: mime}
}

// pdfText concatenates the plain text of every page. The pdf package panics on
// some malformed inputs; those are reported as errors.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n\n")
	}

	return sb.String(), nil
}
