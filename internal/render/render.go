// Package render lays narrative text out as an A4 PDF held in memory.
package render

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rotisserie/eris"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"

	"github.com/sells-group/insight-cli/internal/config"
	"github.com/sells-group/insight-cli/internal/fault"
	"github.com/sells-group/insight-cli/internal/model"
)

// Layout in millimetres and points.
const (
	margin         = 10.0
	bottomMargin   = 15.0
	lineHeight     = 10.0
	paragraphGap   = 5.0
	bodyFontSize   = 10.0
	headingSize    = 16.0
	headingSpacing = 10.0
	minFontSize    = 4.0
	fontFamily     = "Go"
)

// DefaultFilename is used when neither the caller nor config names the file.
const DefaultFilename = "Account_Insights.pdf"

// epoch is stamped as the creation date so equal input gives equal bytes.
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

var paragraphBreak = regexp.MustCompile(`\n[ \t\r\f\v]*\n`)

// Parsed copies of the embedded fonts, used to reject runes without a glyph.
var (
	regularFace = mustParse(goregular.TTF)
	boldFace    = mustParse(gobold.TTF)
)

func mustParse(ttf []byte) *sfnt.Font {
	f, err := sfnt.Parse(ttf)
	if err != nil {
		panic(eris.Wrap(err, "render: parse font"))
	}
	return f
}

// Options controls one render call.
type Options struct {
	Heading  string
	Filename string
}

// Renderer converts text into RenderedReports.
type Renderer struct {
	preserveParagraphs bool
	defaultFilename    string
}

// New creates a Renderer from cfg.
func New(cfg config.RenderConfig) *Renderer {
	name := cfg.DefaultFilename
	if name == "" {
		name = DefaultFilename
	}
	return &Renderer{preserveParagraphs: cfg.PreserveParagraphs, defaultFilename: name}
}

// Normalize splits text into blocks with every whitespace run collapsed to a
// single space. With preserve set, blank-line separated paragraphs become
// separate blocks; otherwise the whole text is one block.
func Normalize(text string, preserve bool) []string {
	if !preserve {
		if s := collapse(text); s != "" {
			return []string{s}
		}
		return nil
	}

	var out []string
	for _, p := range paragraphBreak.Split(text, -1) {
		if s := collapse(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Render lays text out and returns the PDF bytes. The same text and options
// always produce the same bytes.
func (r *Renderer) Render(text string, opts Options) (report *model.RenderedReport, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			report = nil
			err = fault.Render("render", eris.Errorf("render: %v", rec))
		}
	}()

	filename := opts.Filename
	if filename == "" {
		filename = r.defaultFilename
	}

	heading := collapse(opts.Heading)
	blocks := Normalize(text, r.preserveParagraphs)
	if err := checkGlyphs(boldFace, heading); err != nil {
		return nil, err
	}
	for _, block := range blocks {
		if err := checkGlyphs(regularFace, block); err != nil {
			return nil, err
		}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(epoch)
	pdf.SetModificationDate(epoch)
	pdf.SetCatalogSort(true)
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, bottomMargin)
	pdf.AddPage()

	if heading != "" {
		pdf.SetFont(fontFamily, "B", headingSize)
		pdf.CellFormat(0, lineHeight, heading, "", 1, "C", false, 0, "")
		pdf.Ln(headingSpacing)
	}

	pdf.SetFont(fontFamily, "", bodyFontSize)
	pageWidth, _ := pdf.GetPageSize()
	width := pageWidth - 2*margin

	for bi, block := range blocks {
		if bi > 0 {
			pdf.Ln(paragraphGap)
		}
		lines := wrap(block, width, pdf.GetStringWidth)
		lastBlock := bi == len(blocks)-1
		for li, ln := range lines {
			s := ln.text
			if ln.brokeAtSpace || (li == len(lines)-1 && !lastBlock) {
				s += " "
			}
			// A single word wider than the line is shrunk rather than split.
			if w := pdf.GetStringWidth(ln.text); w > width {
				pdf.SetFontSize(max(minFontSize, bodyFontSize*width/w))
				pdf.CellFormat(width, lineHeight, s, "", 1, "L", false, 0, "")
				pdf.SetFontSize(bodyFontSize)
				continue
			}
			pdf.CellFormat(width, lineHeight, s, "", 1, "L", false, 0, "")
		}
	}

	if pdf.Err() {
		return nil, fault.Render("render", eris.Wrap(pdf.Error(), "render: layout"))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fault.Render("render", eris.Wrap(err, "render: output"))
	}

	return &model.RenderedReport{
		Bytes:    buf.Bytes(),
		Filename: filename,
		Pages:    pdf.PageNo(),
	}, nil
}

type line struct {
	text string
	// brokeAtSpace is true when a further word follows on the next line.
	brokeAtSpace bool
}

// wrap breaks s greedily at spaces so no line is wider than width. A word
// wider than a line is never split; it gets a line of its own.
func wrap(s string, width float64, measure func(string) float64) []line {
	var (
		out []line
		cur string
	)
	for _, word := range strings.Split(s, " ") {
		if word == "" {
			continue
		}
		candidate := word
		if cur != "" {
			candidate = cur + " " + word
		}
		if measure(candidate) <= width {
			cur = candidate
			continue
		}
		if cur != "" {
			out = append(out, line{text: cur, brokeAtSpace: true})
		}
		cur = word
	}
	if cur != "" {
		out = append(out, line{text: cur})
	}
	return out
}

// checkGlyphs fails with a render fault on the first rune of s that face
// cannot draw.
func checkGlyphs(face *sfnt.Font, s string) error {
	var buf sfnt.Buffer
	for _, r := range s {
		idx, err := face.GlyphIndex(&buf, r)
		if err != nil {
			return fault.Render("render", eris.Wrapf(err, "render: glyph lookup %U", r))
		}
		if idx == 0 {
			return fault.Render("render", eris.Errorf("render: no glyph for %q (%U)", r, r))
		}
	}
	return nil
}
