package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

const docxBody = "word/document.xml"

// extractDOCX joins the text of each top-level body paragraph with a single
// space. Runs inside hyperlinks and smart tags are kept in document order.
func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", eris.Wrap(err, "docx: open archive")
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", eris.New("docx: document.xml not found")
	}

	rc, err := body.Open()
	if err != nil {
		return "", eris.Wrap(err, "docx: open document.xml")
	}
	defer func() { _ = rc.Close() }()

	paras, err := paragraphs(rc)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Join(paras, " ")), nil
}

// paragraphs streams document.xml and returns the text of each w:p that is
// a direct child of w:body.
func paragraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)

	var (
		out   []string
		stack []string
		cur   strings.Builder
		inPar bool
		inT   bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "docx: parse document.xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			switch {
			case name == "p" && len(stack) > 0 && stack[len(stack)-1] == "body":
				inPar = true
				cur.Reset()
			case inPar && name == "t":
				inT = true
			case inPar && name == "tab":
				cur.WriteByte('\t')
			case inPar && (name == "br" || name == "cr"):
				cur.WriteByte('\n')
			}
			stack = append(stack, name)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch {
			case t.Name.Local == "t":
				inT = false
			case t.Name.Local == "p" && inPar && len(stack) > 0 && stack[len(stack)-1] == "body":
				out = append(out, cur.String())
				inPar = false
			}
		case xml.CharData:
			if inT {
				cur.Write(t)
			}
		}
	}
	return out, nil
}
