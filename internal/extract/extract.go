// Package extract turns uploaded resume and job description documents into
// plain text. It understands PDF, DOCX and plain text files.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"tailorkit/internal/errors"
)

// Kind identifies a supported document format
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindText Kind = "txt"
)

// MIME types accepted when the file name carries no usable extension
const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

// SupportedKinds lists the formats Extract understands
var SupportedKinds = []Kind{KindPDF, KindDOCX, KindText}

const (
	msgUnsupported = "Unsupported file type. Please upload a PDF, DOCX, or TXT file."
	msgReadFailed  = "Error reading file."
	msgPDFCorrupt  = "Could not parse the PDF file. It might be corrupted or protected."
	msgDOCXCorrupt = "Could not parse the DOCX file."
)

// DetectKind picks the document format from the file extension, falling
// back to the declared MIME type.
func DetectKind(name, mimeType string) (Kind, bool) {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		switch Kind(strings.ToLower(name[idx+1:])) {
		case KindPDF:
			return KindPDF, true
		case KindDOCX:
			return KindDOCX, true
		case KindText:
			return KindText, true
		}
	}

	mediaType := strings.ToLower(strings.TrimSpace(mimeType))
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mediaType = parsed
	}

	switch mediaType {
	case MIMEPDF:
		return KindPDF, true
	case MIMEDOCX:
		return KindDOCX, true
	case MIMEText:
		return KindText, true
	}
	return "", false
}

// Extract converts data into plain text according to its name and MIME type.
// The returned error is always an *errors.AppError.
func Extract(ctx context.Context, name, mimeType string, data []byte) (string, error) {
	kind, ok := DetectKind(name, mimeType)
	if !ok {
		return "", errors.NewUnsupportedTypeError(errors.ErrCodeUnsupportedFileType, msgUnsupported, nil).
			WithContext("file_name", name).
			WithContext("mime_type", mimeType).
			WithContext("supported", SupportedKinds)
	}

	if err := ctx.Err(); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, msgReadFailed, err)
	}

	switch kind {
	case KindPDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", errors.NewCorruptDocumentError(errors.ErrCodeCorruptDocument, msgPDFCorrupt, err).
				WithContext("file_name", name)
		}
		return text, nil
	case KindDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return "", errors.NewCorruptDocumentError(errors.ErrCodeCorruptDocument, msgDOCXCorrupt, err).
				WithContext("file_name", name)
		}
		return text, nil
	default:
		return string(data), nil
	}
}

// ExtractFile reads path from disk and extracts its text
func ExtractFile(ctx context.Context, path string) (string, error) {
	if _, ok := DetectKind(path, ""); !ok {
		return "", errors.NewUnsupportedTypeError(errors.ErrCodeUnsupportedFileType, msgUnsupported, nil).
			WithContext("file_name", filepath.Base(path)).
			WithContext("supported", SupportedKinds)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.ErrCodeFileNotReadable
		if os.IsNotExist(err) {
			code = errors.ErrCodeFileNotFound
		}
		return "", errors.NewIOError(code, msgReadFailed, err).WithContext("path", path)
	}

	return Extract(ctx, filepath.Base(path), "", data)
}

// ExtractReader reads at most maxBytes from r and extracts its text. A
// non-positive maxBytes disables the limit.
func ExtractReader(ctx context.Context, name, mimeType string, r io.Reader, maxBytes int64) (string, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, msgReadFailed, err).WithContext("file_name", name)
	}

	if maxBytes > 0 && int64(buf.Len()) > maxBytes {
		return "", errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("File is too large. The maximum size is %d bytes.", maxBytes), nil).
			WithContext("file_name", name)
	}

	return Extract(ctx, name, mimeType, buf.Bytes())
}
