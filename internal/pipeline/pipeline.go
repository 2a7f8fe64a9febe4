// Package pipeline runs one insight submission end to end: optional
// document extraction, synthesis, optional summarization, rendering, and
// optional archiving.
package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/archive"
	"github.com/sells-group/insight-cli/internal/fault"
	"github.com/sells-group/insight-cli/internal/insight"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/render"
	"github.com/sells-group/insight-cli/internal/session"
)

// Phase names recorded in Result.Phases.
const (
	PhaseExtract    = "extract"
	PhaseSynthesize = "synthesize"
	PhaseSummarize  = "summarize"
	PhaseRender     = "render"
	PhaseArchive    = "archive"
)

// Synthesizer produces an insight from a request.
type Synthesizer interface {
	Synthesize(ctx context.Context, log *zap.Logger, req *model.InsightRequest, p insight.Params) (*model.GeneratedInsight, error)
}

// Summarizer condenses text.
type Summarizer interface {
	Summarize(ctx context.Context, log *zap.Logger, text string) (string, error)
}

// Renderer turns text into a PDF.
type Renderer interface {
	Render(text string, opts render.Options) (*model.RenderedReport, error)
}

// Extractor turns an uploaded file into text.
type Extractor interface {
	Extract(ctx context.Context, log *zap.Logger, filename, contentType string, data []byte) (*model.ExtractedDocument, error)
}

// Archiver stores rendered reports.
type Archiver interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Upload is a file attached to a submission.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Options controls one run.
type Options struct {
	Mode        model.Mode
	Temperature float64
	MaxTokens   int
	Summarize   bool
	// Heading overrides the summary heading. Raw insights have no heading
	// unless one is given.
	Heading  string
	Filename string
	Upload   *Upload
}

// Result is the outcome of a successful run.
type Result struct {
	SessionID string                   `json:"session_id"`
	Insight   *model.GeneratedInsight  `json:"insight"`
	Summary   string                   `json:"summary,omitempty"`
	Report    *model.RenderedReport    `json:"report"`
	Document  *model.ExtractedDocument `json:"-"`
	Warnings  []string                 `json:"warnings,omitempty"`
	Phases    []model.PhaseResult      `json:"phases"`
}

// Pipeline wires the stages together. Extractor and Archiver may be nil.
type Pipeline struct {
	synth          Synthesizer
	summ           Summarizer
	render         Renderer
	extract        Extractor
	archive        Archiver
	summaryHeading string
}

// New creates a Pipeline.
func New(synth Synthesizer, summ Summarizer, r Renderer, ext Extractor, arch Archiver, summaryHeading string) *Pipeline {
	return &Pipeline{
		synth:          synth,
		summ:           summ,
		render:         r,
		extract:        ext,
		archive:        arch,
		summaryHeading: summaryHeading,
	}
}

// Run processes req within sess. The request, insight, summary, and report
// are stored together only when every required phase succeeds.
// Extraction and archive failures are logged and do not fail the run.
func (p *Pipeline) Run(ctx context.Context, sess *session.Session, req *model.InsightRequest, opts Options) (*Result, error) {
	log := sess.Log()
	result := &Result{SessionID: sess.ID()}

	if req == nil {
		return nil, fault.Invalid("pipeline", model.ErrMissingRequired)
	}
	if err := req.Validate(); err != nil {
		log.Warn("Incomplete form submission: missing product name or company URL")
		return nil, fault.Invalid("pipeline", err)
	}
	logRequest(log, req)

	trackPhase := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		pr := model.PhaseResult{Name: name, Duration: time.Since(start).Milliseconds()}
		if err != nil {
			pr.Status = model.PhaseStatusFailed
			pr.Error = fault.Message(err)
			log.Warn("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", pr.Duration), zap.Error(err))
		} else {
			pr.Status = model.PhaseStatusComplete
			log.Info("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", pr.Duration))
		}
		result.Phases = append(result.Phases, pr)
		return err
	}
	skip := func(name string) {
		result.Phases = append(result.Phases, model.PhaseResult{Name: name, Status: model.PhaseStatusSkipped})
	}

	if opts.Upload != nil && p.extract != nil {
		_ = trackPhase(PhaseExtract, func() error {
			doc, err := p.extract.Extract(ctx, log, opts.Upload.Filename, opts.Upload.ContentType, opts.Upload.Data)
			if err != nil {
				result.Warnings = append(result.Warnings, fault.Message(err))
				return err
			}
			req.Document = doc
			result.Document = doc
			log.Info("Uploaded file parsed: " + opts.Upload.Filename)
			return nil
		})
	} else {
		skip(PhaseExtract)
	}

	var ins *model.GeneratedInsight
	err := trackPhase(PhaseSynthesize, func() error {
		var err error
		ins, err = p.synth.Synthesize(ctx, log, req, insight.Params{
			Mode:        opts.Mode,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	result.Insight = ins

	text := ins.Text
	heading := opts.Heading
	if opts.Summarize {
		err := trackPhase(PhaseSummarize, func() error {
			var err error
			result.Summary, err = p.summ.Summarize(ctx, log, ins.Text)
			return err
		})
		if err != nil {
			return nil, err
		}
		text = result.Summary
		if heading == "" {
			heading = p.summaryHeading
		}
	} else {
		skip(PhaseSummarize)
	}

	err = trackPhase(PhaseRender, func() error {
		var err error
		result.Report, err = p.render.Render(text, render.Options{Heading: heading, Filename: opts.Filename})
		return err
	})
	if err != nil {
		log.Error("Error generating PDF", zap.Error(err))
		return nil, err
	}
	log.Info("Successfully generated PDF: " + result.Report.Filename)

	if p.archive != nil {
		key := archive.Key(result.SessionID, result.Report.Filename)
		_ = trackPhase(PhaseArchive, func() error {
			return p.archive.Put(ctx, key, result.Report.Bytes)
		})
	} else {
		skip(PhaseArchive)
	}

	sess.StoreResult(req, result.Insight, result.Summary, result.Report)
	log.Info("Insights generated and stored in session state")
	return result, nil
}

func logRequest(log *zap.Logger, req *model.InsightRequest) {
	log.Info("User submitted form with the following inputs:")
	log.Info("Product Name: " + req.ProductName)
	log.Info("Company URL: " + req.CompanyURL)
	log.Info("Product Category: " + req.ProductCategory)
	log.Info("Competitors: " + strings.Join(req.Competitors, ","))
	log.Info("Value Proposition: " + req.ValueProposition)
	log.Info("Target Customer: " + req.TargetCustomer)
}
