package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/extract"
	"github.com/sells-group/insight-cli/internal/fault"
	"github.com/sells-group/insight-cli/internal/insight"
	"github.com/sells-group/insight-cli/internal/model"
	"github.com/sells-group/insight-cli/internal/pipeline"
	"github.com/sells-group/insight-cli/internal/session"
)

// multipartMemory is the part of a form kept in memory before spilling to disk.
const multipartMemory = 32 << 20

// msgInFlight is returned with 409 while a session is busy.
const msgInFlight = "a submission is already in progress for this session"

// errUploadTooLarge marks an uploaded file over the configured limit.
var errUploadTooLarge = eris.New("upload too large")

var servePort int

// serveDefaults carries the configured values used when a form omits them.
type serveDefaults struct {
	Temperature float64
	MaxTokens   int
	MaxUpload   int64
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for interactive sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg.Server.Port = resolvePort(servePort, cfg.Server.Port)

		p, err := initPipeline(ctx, cfg, "serve")
		if err != nil {
			return err
		}

		sessions := session.NewManager(cfg.Log.SessionDir)
		defer sessions.CloseAll()

		mux := buildMux(p, sessions, serveDefaults{
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			MaxUpload:   cfg.Extract.MaxBytes,
		})

		return startServer(ctx, mux, cfg.Server.Port)
	},
}

// resolvePort prefers the flag value and falls back to config.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler on port until ctx is cancelled.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}

	return nil
}

// buildMux wires the session routes. p may be nil when only /health is used.
func buildMux(p runner, sessions *session.Manager, d serveDefaults) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/sessions", func(w http.ResponseWriter, _ *http.Request) {
		sess, err := sessions.Create()
		if err != nil {
			zap.L().Error("create session failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not start session"})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID()})
	})

	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Post("/insights", func(w http.ResponseWriter, req *http.Request) {
			handleInsights(w, req, p, sessions, d)
		})

		r.Get("/report", func(w http.ResponseWriter, req *http.Request) {
			sess, ok := sessions.Get(chi.URLParam(req, "id"))
			if !ok {
				writeNotFound(w)
				return
			}
			report := sess.Report()
			if report == nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "no report available"})
				return
			}
			name := report.Filename
			if sr := sess.Request(); sr != nil {
				name = model.DownloadName(sr.ProductName, time.Now())
			}
			w.Header().Set("Content-Type", "application/pdf")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
			w.Header().Set("Content-Length", strconv.Itoa(len(report.Bytes)))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(report.Bytes)
		})

		r.Post("/reset", func(w http.ResponseWriter, req *http.Request) {
			id := chi.URLParam(req, "id")
			current, ok := sessions.Get(id)
			if !ok {
				writeNotFound(w)
				return
			}
			// Reset clears the busy mark on success.
			if !current.TryBegin() {
				writeJSON(w, http.StatusConflict, map[string]string{"error": msgInFlight})
				return
			}
			sess, err := sessions.Reset(id)
			if errors.Is(err, session.ErrNotFound) {
				current.End()
				writeNotFound(w)
				return
			}
			if err != nil {
				current.End()
				zap.L().Error("reset session failed", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not reset session"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]string{
				"session_id": sess.ID(),
				"message":    session.MsgReset,
			})
		})

		r.Delete("/", func(w http.ResponseWriter, req *http.Request) {
			err := sessions.Delete(chi.URLParam(req, "id"))
			if errors.Is(err, session.ErrNotFound) {
				writeNotFound(w)
				return
			}
			if err != nil {
				zap.L().Warn("close session failed", zap.Error(err))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	return r
}

// insightResponse is the body returned for a successful submission.
type insightResponse struct {
	SessionID string              `json:"session_id"`
	Mode      model.Mode          `json:"mode"`
	Insight   string              `json:"insight"`
	Summary   string              `json:"summary,omitempty"`
	Filename  string              `json:"filename"`
	Pages     int                 `json:"pages"`
	Warnings  []string            `json:"warnings,omitempty"`
	Phases    []model.PhaseResult `json:"phases"`
}

func handleInsights(w http.ResponseWriter, r *http.Request, p runner, sessions *session.Manager, d serveDefaults) {
	sess, ok := sessions.Get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w)
		return
	}
	if !sess.TryBegin() {
		writeJSON(w, http.StatusConflict, map[string]string{"error": msgInFlight})
		return
	}
	defer sess.End()

	if d.MaxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, d.MaxUpload+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": errUploadTooLarge.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form body"})
		return
	}

	req, opts, err := parseSubmission(r, d)
	if errors.Is(err, errUploadTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": errUploadTooLarge.Error()})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := p.Run(r.Context(), sess, req, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, insightResponse{
		SessionID: res.SessionID,
		Mode:      res.Insight.Mode,
		Insight:   res.Insight.Text,
		Summary:   res.Summary,
		Filename:  res.Report.Filename,
		Pages:     res.Report.Pages,
		Warnings:  res.Warnings,
		Phases:    res.Phases,
	})
}

// parseSubmission reads the form fields and optional file of a submission.
// Malformed parameters are validation errors; a file over d.MaxUpload
// returns errUploadTooLarge.
func parseSubmission(r *http.Request, d serveDefaults) (*model.InsightRequest, pipeline.Options, error) {
	req := &model.InsightRequest{
		ProductName:      r.FormValue("product_name"),
		CompanyURL:       r.FormValue("company_url"),
		ProductCategory:  r.FormValue("product_category"),
		Competitors:      model.ParseCompetitors(r.FormValue("competitors")),
		ValueProposition: r.FormValue("value_proposition"),
		TargetCustomer:   r.FormValue("target_customer"),
	}

	mode, err := model.ParseMode(r.FormValue("mode"))
	if err != nil {
		return nil, pipeline.Options{}, fault.Invalid("serve", err)
	}

	opts := pipeline.Options{Mode: mode, Temperature: d.Temperature, MaxTokens: d.MaxTokens}

	if v := strings.TrimSpace(r.FormValue("temperature")); v != "" {
		if opts.Temperature, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, pipeline.Options{}, fault.Invalid("serve", eris.Errorf("temperature %q is not a number", v))
		}
	}
	if v := strings.TrimSpace(r.FormValue("max_tokens")); v != "" {
		if opts.MaxTokens, err = strconv.Atoi(v); err != nil {
			return nil, pipeline.Options{}, fault.Invalid("serve", eris.Errorf("max_tokens %q is not an integer", v))
		}
	}
	if v := strings.TrimSpace(r.FormValue("summarize")); v != "" {
		opts.Summarize = v == "on"
		if !opts.Summarize {
			if opts.Summarize, err = strconv.ParseBool(v); err != nil {
				return nil, pipeline.Options{}, fault.Invalid("serve", eris.Errorf("summarize %q is not a boolean", v))
			}
		}
	}

	params := insight.Params{Mode: opts.Mode, Temperature: opts.Temperature, MaxTokens: opts.MaxTokens}
	if err := params.Validate(); err != nil {
		return nil, pipeline.Options{}, fault.Invalid("serve", err)
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return nil, pipeline.Options{}, fault.Invalid("serve", eris.Wrap(err, "read upload"))
	default:
		defer file.Close() //nolint:errcheck
		if d.MaxUpload > 0 && header.Size > d.MaxUpload {
			return nil, pipeline.Options{}, errUploadTooLarge
		}
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, pipeline.Options{}, fault.Invalid("serve", eris.Wrap(err, "read upload"))
		}
		opts.Upload = &pipeline.Upload{
			Filename:    header.Filename,
			ContentType: extract.DetectContentType(header.Filename, header.Header.Get("Content-Type")),
			Data:        data,
		}
	}

	return req, opts, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("write response failed", zap.Error(err))
	}
}

// writeError translates err into the user-facing message and status.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, fault.HTTPStatus(err), map[string]string{"error": fault.Message(err)})
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": session.ErrNotFound.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
