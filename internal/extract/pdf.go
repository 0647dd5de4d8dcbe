package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF joins the text fragments of every page with a single space and
// ends each page with a newline.
func extractPDF(data []byte) (text string, err error) {
	// the decoder panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("pdf decoder panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			sb.WriteString("\n")
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}

		var fragments []string
		for _, row := range rows {
			for _, word := range row.Content {
				fragments = append(fragments, word.S)
			}
		}
		sb.WriteString(strings.Join(fragments, " "))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
