package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"alfredoptarigan/career-coach/internal/apperror"
	"alfredoptarigan/career-coach/internal/models"
)

var errNoText = errors.New("no text content found")

type DocumentExtractor interface {
	Extract(doc *models.UploadedDocument) (string, error)
}

type documentExtractor struct{}

func NewDocumentExtractor() DocumentExtractor {
	return &documentExtractor{}
}

// Extract turns an uploaded document into plain text. The document's bytes
// are only read.
func (e *documentExtractor) Extract(doc *models.UploadedDocument) (text string, err error) {
	kind := doc.Kind
	if kind == "" {
		kind = models.DetectMimeKind(doc.DeclaredType, doc.Name)
	}

	if kind == models.MimeUnsupported {
		return "", apperror.UnsupportedFormat(doc.DisplayType())
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Parser panic while extracting %s: %v\n", doc.Name, r)
			text = ""
			err = apperror.ExtractionFailed(doc.Name, fmt.Errorf("parser panic: %v", r))
		}
	}()

	switch kind {
	case models.MimePlain:
		text, err = decodePlainText(doc.RawBytes)
	case models.MimePDF:
		text, err = extractPDFText(doc.RawBytes)
	case models.MimeDOCX:
		text, err = extractDOCXText(doc.RawBytes)
	}
	if err != nil {
		return "", apperror.ExtractionFailed(doc.Name, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", apperror.ExtractionFailed(doc.Name, errNoText)
	}

	return text, nil
}

func decodePlainText(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return transformText(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), data)
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return transformText(unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), data)
	case utf8.Valid(data):
		return string(data), nil
	}

	return transformText(charmap.Windows1252.NewDecoder(), data)
}

func transformText(t transform.Transformer, data []byte) (string, error) {
	decoded, _, err := transform.Bytes(t, data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(decoded), nil
}

func extractPDFText(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	totalPage := r.NumPage()
	pages := make([]string, 0, totalPage)

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		fragments := groupGlyphs(page.Content().Text)
		pages = append(pages, strings.Join(fragments, " "))
	}

	return strings.Join(pages, "\n"), nil
}

// groupGlyphs merges positioned glyphs into text fragments. A fragment ends
// when the baseline moves or the next glyph does not continue the run.
func groupGlyphs(glyphs []pdf.Text) []string {
	var fragments []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			fragments = append(fragments, s)
		}
		current.Reset()
	}

	for i, g := range glyphs {
		if i > 0 && breaksRun(glyphs[i-1], g) {
			flush()
		}
		current.WriteString(g.S)
	}
	flush()

	return fragments
}

func breaksRun(prev, next pdf.Text) bool {
	if math.Abs(next.Y-prev.Y) > 0.5 {
		return true
	}
	if next.X < prev.X {
		return true
	}
	if prev.W > 0 {
		gap := next.X - (prev.X + prev.W)
		return gap > math.Max(prev.FontSize, 1)
	}
	return false
}

func extractDOCXText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return documentXMLText(doc.Editable().GetContent())
}

// documentXMLText walks a word/document.xml body and keeps only its text.
func documentXMLText(content string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var sb strings.Builder
	inText := false
	runDepth := 0

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read document body: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				// tab stops in paragraph properties are not content
				if runDepth > 0 {
					sb.WriteString("\t")
				}
			case "br", "cr":
				sb.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "r":
				runDepth--
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimRight(sb.String(), "\n"), nil
}
