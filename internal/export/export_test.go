package export

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailorkit/internal/config"
	"tailorkit/internal/errors"
	"tailorkit/internal/extract"
)

func newTestService() *Service {
	return NewService(config.ExportConfig{PDFFont: "Helvetica", PDFFontSize: 11, PDFLineHeight: 5.5}, nil)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"pdf", FormatPDF, false},
		{"DOCX", FormatDOCX, false},
		{" docx ", FormatDOCX, false},
		{"rtf", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Tailored_Resume.pdf", FileName("Tailored Resume", FormatPDF))
	assert.Equal(t, "Personalized_Cover_Letter.docx", FileName("Personalized Cover Letter", FormatDOCX))
	assert.Equal(t, "A_B.pdf", FileName("A \t  B", FormatPDF))
}

func TestExportPDF(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Export("Tailored Resume", "Jane Doe\nSoftware Engineer", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "Tailored_Resume.pdf", doc.FileName)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF")))

	text, err := extract.Extract(context.Background(), doc.FileName, "", doc.Data)
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe")
	assert.Contains(t, text, "Software Engineer")
}

func TestExportPDFPaginates(t *testing.T) {
	svc := newTestService()

	lines := make([]string, 200)
	for i := range lines {
		lines[i] = "Delivered measurable results across distributed systems."
	}

	doc, err := svc.Export("Tailored Resume", strings.Join(lines, "\n"), FormatPDF)
	require.NoError(t, err)

	reader, err := pdf.NewReader(bytes.NewReader(doc.Data), int64(len(doc.Data)))
	require.NoError(t, err)
	assert.Greater(t, reader.NumPage(), 1)
}

func TestExportPDFNonASCII(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Export("Tailored Resume", "José Müller – café", FormatPDF)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF")))
}

func TestExportDOCX(t *testing.T) {
	svc := newTestService()

	doc, err := svc.Export("Personalized Cover Letter", "Dear Hiring Manager,\n\nI build <fast> & reliable systems.", FormatDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Personalized_Cover_Letter.docx", doc.FileName)
	assert.Equal(t, FormatDOCX.ContentType(), doc.ContentType)

	text, err := extract.Extract(context.Background(), doc.FileName, "", doc.Data)
	require.NoError(t, err)
	// one paragraph per line, each followed by a blank line on extraction
	assert.Equal(t, "Dear Hiring Manager,\n\n\n\nI build <fast> & reliable systems.\n\n", text)
}

func TestDocumentXMLParagraphPerLine(t *testing.T) {
	content, err := documentXML("one\ntwo\n\nthree")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(content, "<w:t "))
	assert.Equal(t, 1, strings.Count(content, "<w:p/>"))
}

type failingWriter struct{}

func (failingWriter) Write(io.Writer, string) error {
	return stderrors.New("boom")
}

func TestExportFailure(t *testing.T) {
	svc := newTestService()
	svc.writers[FormatPDF] = failingWriter{}
	svc.writers[FormatDOCX] = failingWriter{}

	tests := []struct {
		format  Format
		message string
	}{
		{FormatPDF, "Sorry, there was an error generating the PDF."},
		{FormatDOCX, "Sorry, there was an error generating the DOCX file."},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			doc, err := svc.Export("Tailored Resume", "text", tt.format)
			assert.Nil(t, doc)
			require.Error(t, err)

			appErr, ok := errors.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeExport, appErr.Type)
			assert.Equal(t, errors.ErrCodeExportFailed, appErr.Code)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := newTestService().Export("Tailored Resume", "text", Format("rtf"))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
