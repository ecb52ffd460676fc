package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeText = "text/plain"
)

// TextExtractor converts raw file bytes of a supported MIME type into plain
// text segments. One segment per PDF page, per DOCX paragraph block, or one
// for the whole plain-text file. Zero segments means nothing extractable.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract dispatches on MIME type. Unsupported types are rejected upstream
// by validation; getting one here is a programming error surfaced as a
// plain error.
func (e *TextExtractor) Extract(data []byte, contentType string) ([]string, error) {
	switch contentType {
	case MIMETypePDF:
		return e.extractPDF(data)
	case MIMETypeDOCX:
		return e.extractDOCX(data)
	case MIMETypeText:
		return e.extractPlainText(data)
	default:
		return nil, fmt.Errorf("unsupported content type: %s", contentType)
	}
}

func (e *TextExtractor) extractPDF(data []byte) ([]string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var segments []string
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			// A single bad page should not sink the document
			continue
		}

		text = strings.TrimSpace(sanitizeUTF8(text))
		if text != "" {
			segments = append(segments, text)
		}
	}

	return segments, nil
}

// documentXML mirrors the parts of word/document.xml we care about.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

func (e *TextExtractor) extractDOCX(data []byte) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX archive: %w", err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open document.xml: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read document.xml: %w", err)
		}

		return parseDocxXML(content)
	}

	return nil, fmt.Errorf("document.xml not found in DOCX archive")
}

func parseDocxXML(content []byte) ([]string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var segments []string
	for _, para := range doc.Body.Paragraphs {
		var sb strings.Builder
		for _, run := range para.Runs {
			for _, t := range run.Text {
				sb.WriteString(t.Content)
			}
		}
		text := strings.TrimSpace(sb.String())
		if text != "" {
			segments = append(segments, text)
		}
	}

	return segments, nil
}

func (e *TextExtractor) extractPlainText(data []byte) ([]string, error) {
	text := strings.TrimSpace(sanitizeUTF8(string(data)))
	if text == "" {
		return nil, nil
	}
	return []string{text}, nil
}

// sanitizeUTF8 drops invalid byte sequences so downstream JSON and SQL
// encoding never see broken runes.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		v = append(v, r)
	}
	return string(v)
}
