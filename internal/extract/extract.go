// Package extract converts uploaded PDF and DOCX files into flat text.
package extract

import (
	"context"
	"mime"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/config"
	"github.com/sells-group/insight-cli/internal/fault"
	"github.com/sells-group/insight-cli/internal/model"
)

// Supported content types.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var docxTypes = map[string]bool{
	ContentTypeDOCX:      true,
	"application/docx":   true,
	"application/x-docx": true,
}

// Extractor pulls plain text out of uploaded files.
type Extractor struct {
	maxPages int
	maxBytes int64
}

// New creates an Extractor from cfg.
func New(cfg config.ExtractConfig) *Extractor {
	return &Extractor{maxPages: cfg.MaxPages, maxBytes: cfg.MaxBytes}
}

// DetectContentType normalizes the declared content type, falling back to
// the filename extension when the declaration is missing or generic.
func DetectContentType(filename, declared string) string {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if mt, _, err := mime.ParseMediaType(ct); err == nil {
		ct = mt
	}
	if docxTypes[ct] {
		return ContentTypeDOCX
	}
	if ct != "" && ct != "application/octet-stream" {
		return ct
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return ContentTypePDF
	case ".docx":
		return ContentTypeDOCX
	default:
		return ct
	}
}

// Extract returns the text of data. Unsupported types and parse failures
// return a nil document and a fault.Extraction error; callers treat both as
// an absent document.
func (e *Extractor) Extract(ctx context.Context, log *zap.Logger, filename, contentType string, data []byte) (*model.ExtractedDocument, error) {
	if log == nil {
		log = zap.L()
	}
	if err := ctx.Err(); err != nil {
		return nil, fault.Extraction("extract", eris.Wrap(err, "extract: context"))
	}

	ct := DetectContentType(filename, contentType)
	if ct != ContentTypePDF && ct != ContentTypeDOCX {
		log.Warn("extract: unsupported file type",
			zap.String("file", filename),
			zap.String("content_type", contentType),
		)
		return nil, fault.Unsupported("extract", contentType)
	}

	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		err := eris.Errorf("extract: file is %d bytes, limit is %d", len(data), e.maxBytes)
		log.Error("extract: file too large", zap.String("file", filename), zap.Error(err))
		return nil, fault.Extraction("extract", err)
	}

	var (
		text  string
		pages int
		err   error
	)
	switch ct {
	case ContentTypePDF:
		if err = e.checkPageLimit(data); err == nil {
			text, pages, err = extractPDF(data)
		}
	case ContentTypeDOCX:
		text, err = extractDOCX(data)
	}
	if err != nil {
		log.Error("extract: parse failed",
			zap.String("file", filename),
			zap.String("content_type", ct),
			zap.Error(err),
		)
		return nil, fault.Extraction("extract", err)
	}

	if text == "" {
		log.Warn("extract: no text found", zap.String("file", filename))
	} else {
		log.Info("extract: parsed file",
			zap.String("file", filename),
			zap.String("content_type", ct),
			zap.Int("chars", len(text)),
		)
	}

	return &model.ExtractedDocument{
		Filename:    filename,
		ContentType: ct,
		Text:        text,
		Pages:       pages,
	}, nil
}
