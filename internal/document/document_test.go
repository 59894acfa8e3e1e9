package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minimalPDF builds a single page pdf showing text in Helvetica.
func minimalPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	t.Parallel()

	e := NewExtractor(0, nil)
	got, err := e.Extract(context.Background(), "cv.txt", strings.NewReader("\n  Jane Doe\nPrincipal scientist, 30 patents\n"))
	require.NoError(t, err)

	assert.False(t, got.Placeholder)
	assert.Equal(t, "Jane Doe\nPrincipal scientist, 30 patents", got.Text)
	assert.Empty(t, got.Note)
	assert.Contains(t, got.MIME, "text/plain")
}

func TestExtractPDF(t *testing.T) {
	t.Parallel()

	e := NewExtractor(0, nil)
	got, err := e.Extract(context.Background(), "cv.pdf", bytes.NewReader(minimalPDF("Jane Doe EB1 applicant")))
	require.NoError(t, err)

	assert.False(t, got.Placeholder, got.Note)
	assert.Contains(t, got.Text, "Jane Doe EB1 applicant")
	assert.Equal(t, "application/pdf", got.MIME)
}

func TestExtractPlaceholders(t *testing.T) {
	t.Parallel()

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	tests := []struct {
		name string
		data []byte
		note string
	}{
		{name: "empty", data: nil, note: "document is empty"},
		{name: "whitespace", data: []byte(" \n\t "), note: "document is empty"},
		{name: "image", data: png, note: "unsupported document type image/png"},
		{name: "broken pdf", data: []byte("%PDF-1.4\nthis is not really a pdf"), note: "pdf could not be read"},
	}

	e := NewExtractor(0, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := e.Extract(context.Background(), tt.name, bytes.NewReader(tt.data))
			require.NoError(t, err)

			assert.True(t, got.Placeholder)
			assert.Equal(t, PlaceholderText, got.Text)
			assert.Contains(t, got.Note, tt.note)
		})
	}
}

func TestExtractTooLarge(t *testing.T) {
	t.Parallel()

	e := NewExtractor(8, nil)
	assert.Equal(t, int64(8), e.MaxBytes())

	_, err := e.Extract(context.Background(), "big.txt", strings.NewReader("123456789"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))

	got, err := e.Extract(context.Background(), "fits.txt", strings.NewReader("12345678"))
	require.NoError(t, err)
	assert.Equal(t, "12345678", got.Text)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestExtractReadError(t *testing.T) {
	t.Parallel()

	_, err := NewExtractor(0, nil).Extract(context.Background(), "cv", failingReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
