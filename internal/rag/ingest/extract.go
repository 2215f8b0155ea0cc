package ingest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/akolanti/GoRAG/internal/domain/commonModels"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

var ErrExtractionFailed = errors.New("text extraction failed")

const pageExtractTimeout = 10 * time.Second

func getDocType(docPath string) commonModels.DocType {
	switch strings.ToLower(filepath.Ext(docPath)) {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".odt", ".rtf":
		return commonModels.DOCX
	case ".txt":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

// ExtractText reads the stored original of a document. PDF pages are
// joined with blank lines so the chunker sees them as paragraphs.
func ExtractText(path string) (string, error) {
	switch docType := getDocType(path); docType {
	case commonModels.PDF:
		return extractPDF(path)
	case commonModels.DOCX, commonModels.TXT:
		return extractDocxTxtRtf(path)
	default:
		return "", fmt.Errorf("%w: unsupported file type %q", ErrExtractionFailed, filepath.Ext(path))
	}
}

func extractPDF(path string) (string, error) {
	logger := logger_i.NewLogger("extract")
	f, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", ErrExtractionFailed, err)
	}

	numPages := f.NumPage()
	pages := make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := protectExtract(page)
		if err != nil {
			// one unreadable page should not lose the document
			logger.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(content) != "" {
			pages = append(pages, strings.TrimSpace(content))
		}
	}
	if len(pages) == 0 && numPages > 0 {
		return "", fmt.Errorf("%w: no readable text in %d pages", ErrExtractionFailed, numPages)
	}
	return strings.Join(pages, "\n\n"), nil
}

// extractDocxTxtRtf reads .odt, .docx, .rtf and plain text files.
func extractDocxTxtRtf(path string) (string, error) {
	text, err := cat.File(path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractionFailed, err)
	}
	return text, nil
}

func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("pdf page parser panic: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(pageExtractTimeout):
		return "", errors.New("page extraction timeout")
	}
}
