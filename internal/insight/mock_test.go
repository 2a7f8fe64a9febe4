package insight

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/llm"
	"github.com/sells-group/insight-cli/internal/model"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Fetch(ctx context.Context, log *zap.Logger, url string) model.WebContentRecord {
	args := m.Called(ctx, log, url)
	return args.Get(0).(model.WebContentRecord)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

func (m *mockCompleter) Name() string { return "mock" }

// echoCompleter answers every prompt with the prompt itself.
type echoCompleter struct {
	calls int
	last  llm.Request
}

func (e *echoCompleter) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	e.calls++
	e.last = req
	return &llm.Response{Text: "Insight report\n" + req.Prompt, Model: "echo", InputTokens: 100, OutputTokens: 50}, nil
}

func (e *echoCompleter) Name() string { return "echo" }
