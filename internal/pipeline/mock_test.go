package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/insight"
	"github.com/sells-group/insight-cli/internal/llm"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/render"
)

type mockSynthesizer struct {
	mock.Mock
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, log *zap.Logger, req *model.InsightRequest, p insight.Params) (*model.GeneratedInsight, error) {
	args := m.Called(ctx, log, req, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GeneratedInsight), args.Error(1)
}

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) Summarize(ctx context.Context, log *zap.Logger, text string) (string, error) {
	args := m.Called(ctx, log, text)
	return args.String(0), args.Error(1)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) Render(text string, opts render.Options) (*model.RenderedReport, error) {
	args := m.Called(text, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.RenderedReport), args.Error(1)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, log *zap.Logger, filename, contentType string, data []byte) (*model.ExtractedDocument, error) {
	args := m.Called(ctx, log, filename, contentType, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExtractedDocument), args.Error(1)
}

type mockArchiver struct {
	mock.Mock
}

func (m *mockArchiver) Put(ctx context.Context, key string, data []byte) error {
	return m.Called(ctx, key, data).Error(0)
}

// stubFetcher returns canned records keyed by URL and an error record for
// anything listed in failing.
type stubFetcher struct {
	failing map[string]string
}

func (f stubFetcher) Fetch(_ context.Context, _ *zap.Logger, url string) model.WebContentRecord {
	if msg, ok := f.failing[url]; ok {
		return model.WebContentRecord{Title: "Error", Description: "Error scraping website: " + msg}
	}
	return model.WebContentRecord{Title: "Title of " + url, Description: "About " + url}
}

// echoCompleter answers with a fixed heading followed by the prompt.
type echoCompleter struct{}

func (echoCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Text: "Sales insights\n\n" + req.Prompt, Model: "echo"}, nil
}

func (echoCompleter) Name() string { return "echo" }
