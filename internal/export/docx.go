package export

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

//go:embed template.docx
var blankTemplate []byte

const (
	documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentFooter = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440" w:header="708" w:footer="708" w:gutter="0"/>` +
		`</w:sectPr></w:body></w:document>`
)

// DOCXWriter writes one paragraph per line of text into a blank document
type DOCXWriter struct{}

func (DOCXWriter) Write(w io.Writer, text string) error {
	tmpl, err := docx.ReadDocxFromMemory(bytes.NewReader(blankTemplate), int64(len(blankTemplate)))
	if err != nil {
		return fmt.Errorf("failed to open docx template: %w", err)
	}
	defer tmpl.Close()

	content, err := documentXML(text)
	if err != nil {
		return err
	}

	doc := tmpl.Editable()
	doc.SetContent(content)
	if err := doc.Write(w); err != nil {
		return fmt.Errorf("failed to write docx: %w", err)
	}
	return nil
}

func documentXML(text string) (string, error) {
	var sb strings.Builder
	sb.WriteString(documentHeader)
	for _, line := range strings.Split(text, "\n") {
		if line == "" {
			sb.WriteString("<w:p/>")
			continue
		}
		sb.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		if err := xml.EscapeText(&sb, []byte(line)); err != nil {
			return "", fmt.Errorf("failed to escape paragraph: %w", err)
		}
		sb.WriteString("</w:t></w:r></w:p>")
	}
	sb.WriteString(documentFooter)
	return sb.String(), nil
}
