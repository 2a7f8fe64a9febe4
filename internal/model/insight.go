package model

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Mode selects the prompt template used for synthesis.
type Mode string

const (
	ModeFull      Mode = "full"      // Six analytical sections.
	ModeCondensed Mode = "condensed" // Strategy, competitors, leadership.
)

// ParseMode converts user input into a Mode. Empty input means full.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeCondensed:
		return ModeCondensed, nil
	default:
		return "", eris.Errorf("unknown report mode %q (want full or condensed)", s)
	}
}

// TokenUsage reports completion token consumption.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// GeneratedInsight is the narrative returned by the completion endpoint.
// It is not modified after it is produced.
type GeneratedInsight struct {
	Text  string     `json:"text"`
	Mode  Mode       `json:"mode"`
	Model string     `json:"model,omitempty"`
	Usage TokenUsage `json:"usage"`
}

// RenderedReport is a finished PDF held in memory.
type RenderedReport struct {
	Bytes    []byte `json:"-"`
	Filename string `json:"filename"`
	Pages    int    `json:"pages"`
}

// PhaseStatus is the outcome of one pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult records the timing and outcome of one pipeline phase.
type PhaseResult struct {
	Name     string      `json:"name"`
	Status   PhaseStatus `json:"status"`
	Duration int64       `json:"duration_ms"`
	Error    string      `json:"error,omitempty"`
}

// DownloadName builds the attachment name offered for a report, e.g.
// "Acme_Widget_Insights_20240131_150405.pdf".
func DownloadName(product string, at time.Time) string {
	name := strings.Join(strings.Fields(product), "_")
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		name = "Account"
	}
	return name + "_Insights_" + at.Format("20060102_150405") + ".pdf"
}
