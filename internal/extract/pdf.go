package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rotisserie/eris"
)

// extractPDF joins the plain text of every page with a single space.
func extractPDF(data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("pdf: malformed document: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, eris.Wrap(err, "pdf: open reader")
	}

	pages = reader.NumPage()
	parts := make([]string, 0, pages)
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			parts = append(parts, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", 0, eris.Wrap(err, fmt.Sprintf("pdf: read page %d", i))
		}
		parts = append(parts, pageText)
	}

	return strings.TrimSpace(strings.Join(parts, " ")), pages, nil
}

// checkPageLimit rejects PDFs with more pages than the configured cap.
func (e *Extractor) checkPageLimit(data []byte) error {
	if e.maxPages <= 0 {
		return nil
	}
	n, err := api.PageCount(bytes.NewReader(data), pdfmodel.NewDefaultConfiguration())
	if err != nil {
		return eris.Wrap(err, "pdf: count pages")
	}
	if n > e.maxPages {
		return eris.Errorf("pdf: document has %d pages, limit is %d", n, e.maxPages)
	}
	return nil
}
