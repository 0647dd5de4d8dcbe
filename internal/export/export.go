// Package export renders edited document text as downloadable PDF and DOCX
// files.
package export

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"

	"tailorkit/internal/config"
	"tailorkit/internal/errors"
)

// Format is a download format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
)

const (
	msgPDFFailed  = "Sorry, there was an error generating the PDF."
	msgDOCXFailed = "Sorry, there was an error generating the DOCX file."
)

// ParseFormat resolves a user supplied format name
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatPDF:
		return FormatPDF, nil
	case FormatDOCX:
		return FormatDOCX, nil
	}
	return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("Unsupported export format %q. Use pdf or docx.", name), nil)
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatDOCX {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/pdf"
}

// FailureMessage is the alert shown when an export in this format fails
func (f Format) FailureMessage() string {
	if f == FormatDOCX {
		return msgDOCXFailed
	}
	return msgPDFFailed
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// FileName derives the download name from a card title, e.g.
// "Tailored Resume" -> "Tailored_Resume.pdf"
func FileName(title string, format Format) string {
	return whitespaceRun.ReplaceAllString(title, "_") + format.Extension()
}

// Writer renders text into a single file format
type Writer interface {
	Write(w io.Writer, text string) error
}

// Document is a rendered export
type Document struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Service renders documents in every supported format
type Service struct {
	writers map[Format]Writer
	logger  *errors.Logger
}

// NewService creates an export service configured from cfg
func NewService(cfg config.ExportConfig, logger *errors.Logger) *Service {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Service{
		writers: map[Format]Writer{
			FormatPDF:  NewPDFWriter(cfg),
			FormatDOCX: DOCXWriter{},
		},
		logger: logger,
	}
}

// Export renders text under title. Render failures are ExportFailed errors
// carrying the format's alert message.
func (s *Service) Export(title, text string, format Format) (*Document, error) {
	writer, ok := s.writers[format]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Unsupported export format %q. Use pdf or docx.", format), nil)
	}

	var buf bytes.Buffer
	if err := writer.Write(&buf, text); err != nil {
		exportErr := errors.NewExportError(errors.ErrCodeExportFailed, format.FailureMessage(), err).
			WithContext("format", string(format)).
			WithContext("title", title)
		s.logger.LogError(exportErr, "Document export failed")
		return nil, exportErr
	}

	s.logger.Debug("Document exported", "format", format, "title", title, "bytes", buf.Len())
	return &Document{
		FileName:    FileName(title, format),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
