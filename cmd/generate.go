package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/extract"
	"github.com/sells-group/insight-cli/internal/fault"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/pipeline"
	"github.com/sells-group/insight-cli/internal/session"
)

// runner executes one submission within a session.
type runner interface {
	Run(ctx context.Context, sess *session.Session, req *model.InsightRequest, opts pipeline.Options) (*pipeline.Result, error)
}

// generateFlags holds the generate command's inputs.
type generateFlags struct {
	productName      string
	companyURL       string
	productCategory  string
	competitors      string
	valueProposition string
	targetCustomer   string
	file             string
	mode             string
	summarize        bool
	temperature      float64
	maxTokens        int
	out              string
	heading          string
}

var genFlags generateFlags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a sales insight report for one product",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if !cmd.Flags().Changed("temperature") {
			genFlags.temperature = cfg.LLM.Temperature
		}
		if genFlags.maxTokens == 0 {
			genFlags.maxTokens = cfg.LLM.MaxTokens
		}

		p, err := initPipeline(ctx, cfg, "generate")
		if err != nil {
			return err
		}

		sess, err := session.New(cfg.Log.SessionDir)
		if err != nil {
			return eris.Wrap(err, "start session")
		}
		defer sess.Close() //nolint:errcheck

		return generate(ctx, p, sess, genFlags, cmd.OutOrStdout(), cmd.ErrOrStderr(), time.Now())
	},
}

// generate runs one submission and writes the report to disk.
func generate(ctx context.Context, p runner, sess *session.Session, f generateFlags, stdout, stderr io.Writer, now time.Time) error {
	req := f.request()
	opts, err := f.options()
	if err != nil {
		return err
	}

	outPath := f.out
	if outPath == "" {
		outPath = model.DownloadName(req.ProductName, now)
	}
	opts.Filename = filepath.Base(outPath)

	res, err := p.Run(ctx, sess, req, opts)
	if err != nil {
		zap.L().Error("generate failed", zap.String("session_id", sess.ID()), zap.Error(err))
		return eris.New(fault.Message(err))
	}

	for _, w := range res.Warnings {
		fmt.Fprintln(stderr, "Warning: "+w) //nolint:errcheck
	}

	fmt.Fprintln(stdout, res.Insight.Text) //nolint:errcheck
	if res.Summary != "" {
		fmt.Fprintf(stdout, "\nSummary:\n%s\n", res.Summary) //nolint:errcheck
	}

	if err := os.WriteFile(outPath, res.Report.Bytes, 0o644); err != nil {
		return eris.Wrapf(err, "write report %s", outPath)
	}
	fmt.Fprintf(stdout, "\nReport written to %s (%d pages)\n", outPath, res.Report.Pages) //nolint:errcheck

	return nil
}

func (f generateFlags) request() *model.InsightRequest {
	return &model.InsightRequest{
		ProductName:      f.productName,
		CompanyURL:       f.companyURL,
		ProductCategory:  f.productCategory,
		Competitors:      model.ParseCompetitors(f.competitors),
		ValueProposition: f.valueProposition,
		TargetCustomer:   f.targetCustomer,
	}
}

func (f generateFlags) options() (pipeline.Options, error) {
	mode, err := model.ParseMode(f.mode)
	if err != nil {
		return pipeline.Options{}, fault.Invalid("generate", err)
	}

	opts := pipeline.Options{
		Mode:        mode,
		Temperature: f.temperature,
		MaxTokens:   f.maxTokens,
		Summarize:   f.summarize,
		Heading:     f.heading,
	}

	if f.file != "" {
		data, err := os.ReadFile(f.file)
		if err != nil {
			return pipeline.Options{}, eris.Wrapf(err, "read %s", f.file)
		}
		opts.Upload = &pipeline.Upload{
			Filename:    filepath.Base(f.file),
			ContentType: extract.DetectContentType(f.file, ""),
			Data:        data,
		}
	}

	return opts, nil
}

func init() {
	fl := generateCmd.Flags()
	fl.StringVar(&genFlags.productName, "product-name", "", "product to build insights for (required)")
	fl.StringVar(&genFlags.companyURL, "company-url", "", "company website URL (required)")
	fl.StringVar(&genFlags.productCategory, "product-category", "", "product category")
	fl.StringVar(&genFlags.competitors, "competitors", "", "comma separated competitor URLs")
	fl.StringVar(&genFlags.valueProposition, "value-proposition", "", "value proposition")
	fl.StringVar(&genFlags.targetCustomer, "target-customer", "", "target customer")
	fl.StringVar(&genFlags.file, "file", "", "product overview document (PDF or DOCX)")
	fl.StringVar(&genFlags.mode, "mode", string(model.ModeFull), "report mode: full or condensed")
	fl.BoolVar(&genFlags.summarize, "summarize", false, "summarize the insight before rendering")
	fl.Float64Var(&genFlags.temperature, "temperature", 0.7, "completion temperature (0.0-1.0, default from config)")
	fl.IntVar(&genFlags.maxTokens, "max-tokens", 0, "max output tokens (100-2000, default from config)")
	fl.StringVar(&genFlags.out, "out", "", "report path (default <product>_Insights_<timestamp>.pdf)")
	fl.StringVar(&genFlags.heading, "heading", "", "report heading")
	_ = generateCmd.MarkFlagRequired("product-name")
	_ = generateCmd.MarkFlagRequired("company-url")
	rootCmd.AddCommand(generateCmd)
}
