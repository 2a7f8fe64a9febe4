package session

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

var lineFormat = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - (INFO|WARN|ERROR) - .+$`)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Regexp(t, `^\d{8}_\d{6}_[0-9a-f]{8}$`, s.ID())
	assert.Equal(t, filepath.Join(dir, "session_"+s.ID()+".log"), s.LogPath())
	assert.WithinDuration(t, time.Now(), s.StartedAt(), 5*time.Second)
	assert.FileExists(t, s.LogPath())
}

func TestNew_DefaultDir(t *testing.T) {
	t.Chdir(t.TempDir())
	s, err := New("")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.True(t, strings.HasPrefix(s.LogPath(), DefaultDir+string(filepath.Separator)))
}

func TestLogFormat(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	s.Log().Info("Product Name: Acme Widget")
	s.Log().Warn("Incomplete form submission")
	s.Log().Error("Error generating PDF", zap.String("file", "a.pdf"))
	require.NoError(t, s.Close())

	lines := readLines(t, s.LogPath())
	require.Len(t, lines, 5)
	for _, l := range lines {
		assert.Regexp(t, lineFormat, l)
	}
	assert.True(t, strings.HasSuffix(lines[0], " - INFO - Application started"))
	assert.True(t, strings.HasSuffix(lines[1], " - INFO - Product Name: Acme Widget"))
	assert.Contains(t, lines[2], " - WARN - Incomplete form submission")
	assert.Contains(t, lines[3], ` - ERROR - Error generating PDF - {"file": "a.pdf"}`)
	assert.True(t, strings.HasSuffix(lines[4], " - INFO - Application session ended"))
}

func TestStoreAndRead(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	assert.Nil(t, s.Request())
	assert.Nil(t, s.Insight())
	assert.Nil(t, s.Report())
	assert.Empty(t, s.Summary())

	req := &model.InsightRequest{ProductName: "Acme Widget", CompanyURL: "https://acme.example"}
	ins := &model.GeneratedInsight{Text: "insight", Mode: model.ModeFull}
	rep := &model.RenderedReport{Bytes: []byte("%PDF-1.3"), Filename: "Account_Insights.pdf", Pages: 1}

	s.StoreResult(req, ins, "summary", rep)

	assert.Same(t, req, s.Request())
	assert.Same(t, ins, s.Insight())
	assert.Same(t, rep, s.Report())
	assert.Equal(t, "summary", s.Summary())
}

func TestReset(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	s.StoreResult(&model.InsightRequest{ProductName: "Acme Widget", CompanyURL: "https://acme.example"},
		&model.GeneratedInsight{Text: "insight"}, "summary", &model.RenderedReport{Bytes: []byte("%PDF-")})
	require.True(t, s.TryBegin())

	oldID, oldPath := s.ID(), s.LogPath()
	require.NoError(t, s.Reset())

	assert.Nil(t, s.Request())
	assert.Nil(t, s.Insight())
	assert.Nil(t, s.Report())
	assert.Empty(t, s.Summary())
	assert.True(t, s.TryBegin(), "reset clears the busy mark")

	assert.NotEqual(t, oldID, s.ID())
	assert.NotEqual(t, oldPath, s.LogPath())
	assert.FileExists(t, s.LogPath())

	old := readLines(t, oldPath)
	assert.True(t, strings.HasSuffix(old[len(old)-1], " - INFO - Application reset"))

	fresh := readLines(t, s.LogPath())
	require.Len(t, fresh, 1)
	assert.True(t, strings.HasSuffix(fresh[0], " - INFO - "+MsgReset))
}

func TestTryBegin(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryBegin() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	s.End()
	assert.True(t, s.TryBegin())
}

func TestNewID_Unique(t *testing.T) {
	at := time.Date(2024, 1, 31, 15, 4, 5, 0, time.UTC)
	a, b := NewID(at), NewID(at)

	assert.True(t, strings.HasPrefix(a, "20240131_150405_"))
	assert.NotEqual(t, a, b)
}

func TestNew_BadDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := New(file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session: create log dir")
}
