package insight

import (
	"context"
	"encoding/json"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-cli/internal/model"
)

const promptHeader = `You are a seasoned sales assistant. Based on the following details:
- **Company:** {company_title} ({company_description})
- Product Name: {product_name}
- Product Category: {product_category}
- Competitors Data: {competitors_data}
- Value Proposition: {value_proposition}
- Target Customer: {target_customer}
`

const fullSections = `
Product and Company Overview
* Generate a concise summary of the product and company, including key features, benefits, and unique selling points.
* Provide a recent news article or press release about the product or company to add current context.
Competitive Landscape
* Compare the target product with the given competitors in terms of their offerings, highlighting strengths and weaknesses.
* Analyze the product's value proposition and differentiation factors using a SWOT (Strengths, Weaknesses, Opportunities, Threats) framework.
Target Customer Analysis
* Define the ideal customer persona, including demographics, psychographics, and behavioral characteristics.
* Identify key pain points of the target customer and explain how the product addresses each one.
* Develop a unique selling proposition (USP) that clearly communicates the product's value to the target customer.
Sales Strategy and Approach
* Recommend an ideal sales approach (e.g., consultative selling, solution selling) and explain why it's suitable for this product and target customer.
* Anticipate potential objections and provide concise, effective counterarguments for each.
* Identify the most effective sales channels for reaching the target customer and explain the rationale for each.
Sample Sales Pitch
* Generate a sample sales pitch paragraph incorporating the insights from the above analysis, ensure the sales pitch is:
    - Attention-grabbing
    - Solution presentation
    - Product highlights and benefits
    - Call to action
Social Media Content
* Generate 2 sample social media posts that highlight key product benefits, address customer pain points, and include relevant hashtags.
`

const condensedSections = `
Generate insights focusing on:
1. Company Strategy
2. Competitor Mentions
3. Leadership Information
Provide actionable and concise information for the sales representative.
`

const documentBlock = `
Product Overview Document:
{document}
`

const summaryPrefix = "Summarize the following detailed content into a concise summary:\n\n"

// Slots holds the values substituted into the insight prompt.
type Slots struct {
	CompanyTitle       string
	CompanyDescription string
	ProductName        string
	ProductCategory    string
	Competitors        []model.WebContentRecord
	ValueProposition   string
	TargetCustomer     string
	Document           string
}

func templateFor(mode model.Mode, withDocument bool) (string, error) {
	var tpl string
	switch mode {
	case model.ModeFull:
		tpl = promptHeader + fullSections
	case model.ModeCondensed:
		tpl = promptHeader + condensedSections
	default:
		return "", eris.Errorf("insight: unknown mode %q", mode)
	}
	if withDocument {
		tpl += documentBlock
	}
	return tpl, nil
}

// BuildPrompt fills the template for mode with slots.
func BuildPrompt(ctx context.Context, mode model.Mode, slots Slots) (string, error) {
	tpl, err := templateFor(mode, slots.Document != "")
	if err != nil {
		return "", err
	}

	competitors := slots.Competitors
	if competitors == nil {
		competitors = []model.WebContentRecord{}
	}
	compJSON, err := json.Marshal(competitors)
	if err != nil {
		return "", eris.Wrap(err, "insight: marshal competitors")
	}

	vars := map[string]any{
		"company_title":       slots.CompanyTitle,
		"company_description": slots.CompanyDescription,
		"product_name":        slots.ProductName,
		"product_category":    slots.ProductCategory,
		"competitors_data":    string(compJSON),
		"value_proposition":   slots.ValueProposition,
		"target_customer":     slots.TargetCustomer,
	}
	if slots.Document != "" {
		vars["document"] = slots.Document
	}

	msgs, err := prompt.FromMessages(schema.FString, schema.UserMessage(tpl)).Format(ctx, vars)
	if err != nil {
		return "", eris.Wrap(err, "insight: fill prompt")
	}
	if len(msgs) == 0 {
		return "", eris.New("insight: prompt rendered no messages")
	}
	return msgs[0].Content, nil
}

// SummaryPrompt returns the prompt used to condense text.
func SummaryPrompt(text string) string {
	return summaryPrefix + text
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
