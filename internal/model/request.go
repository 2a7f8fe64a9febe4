package model

import (
	"strings"

	"github.com/rotisserie/eris"
)

// MsgMissingRequired is shown when a submission lacks the minimum inputs.
const MsgMissingRequired = "Please provide at least a product name and company URL."

// ErrMissingRequired is returned by InsightRequest.Validate.
var ErrMissingRequired = eris.New(MsgMissingRequired)

// WebContentRecord is the title/description pair fetched for a URL. Both
// fields are always populated, with fallback text on a miss or error.
type WebContentRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ExtractedDocument holds the flat text pulled from an uploaded file.
type ExtractedDocument struct {
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"content_type"`
	Text        string `json:"text"`
	Pages       int    `json:"pages,omitempty"`
}

// InsightRequest describes the product, company, and customer context a
// report is generated from.
type InsightRequest struct {
	ProductName      string             `json:"product_name"`
	CompanyURL       string             `json:"company_url"`
	ProductCategory  string             `json:"product_category"`
	Competitors      []string           `json:"competitors"`
	ValueProposition string             `json:"value_proposition"`
	TargetCustomer   string             `json:"target_customer"`
	Document         *ExtractedDocument `json:"uploaded_document,omitempty"`
}

// Validate checks that the fields synthesis cannot proceed without are set.
func (r InsightRequest) Validate() error {
	if strings.TrimSpace(r.ProductName) == "" || strings.TrimSpace(r.CompanyURL) == "" {
		return ErrMissingRequired
	}
	return nil
}

// ParseCompetitors splits a comma separated list of competitor URLs. Entries
// are trimmed, empty entries dropped, and input order kept. The result is
// never nil.
func ParseCompetitors(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if u := strings.TrimSpace(part); u != "" {
			out = append(out, u)
		}
	}
	return out
}
