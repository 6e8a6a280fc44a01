// Package orchestrator composes the query pipeline into the two public
// operations: process and process-streaming.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nlweb-ai/nlweb-go/internal/config"
	"github.com/nlweb-ai/nlweb-go/internal/generator"
	"github.com/nlweb-ai/nlweb-go/internal/models"
	"github.com/nlweb-ai/nlweb-go/internal/processor"
	"github.com/nlweb-ai/nlweb-go/internal/tools"
)

// finalSendGrace bounds how long a terminal fragment waits for a receiver
// that may have stopped draining.
const finalSendGrace = 200 * time.Millisecond

// ToolExecutor runs a selected tool with failures contained.
// Implemented by tools.Selector.
type ToolExecutor interface {
	Execute(ctx context.Context, t tools.Tool, q *models.Query) *models.Response
}

// Service is the top-level request pipeline: prepare, retrieve or run a
// tool, then shape the response for the query's mode.
type Service struct {
	proc   *processor.Processor
	exec   ToolExecutor
	gen    *generator.Generator
	cfg    *config.Config
	logger *zap.Logger
}

// New wires the pipeline. exec may be nil when no tools are registered.
func New(proc *processor.Processor, exec ToolExecutor, gen *generator.Generator, cfg *config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		proc:   proc,
		exec:   exec,
		gen:    gen,
		cfg:    cfg,
		logger: logger,
	}
}

// ProcessRequest runs the full pipeline and always returns a well-formed
// Response; failures of any stage are reported in the Error field, never
// as a returned error.
func (s *Service) ProcessRequest(ctx context.Context, q *models.Query) *models.Response {
	start := time.Now()
	if q == nil {
		q = &models.Query{}
	}

	prepared, err := s.proc.Prepare(ctx, q)
	if err != nil {
		return finalize(models.NewErrorResponse(q, err.Error()), start)
	}

	if prepared.Tool != nil && s.exec != nil {
		resp := s.exec.Execute(ctx, prepared.Tool, q)
		return finalize(resp, start)
	}

	results, err := s.gen.List(ctx, q.Text(), q.Site, q.MaxResults)
	if err != nil {
		return finalize(models.NewErrorResponse(q, stageError("retrieval", err)), start)
	}

	resp := models.NewResponse(q)
	resp.Results = results
	if resp.Results == nil {
		resp.Results = []models.Result{}
	}

	switch q.Mode {
	case models.ModeSummarize:
		summary, err := s.gen.Summarize(ctx, q.Text(), resp.Results)
		if err != nil {
			resp.Error = stageError("summarization", err)
		} else {
			resp.Summary = summary
		}
	case models.ModeGenerate:
		answer, err := s.gen.Generate(ctx, q.Text(), resp.Results)
		if err != nil {
			resp.Error = stageError("generation", err)
		} else {
			resp.GeneratedResponse = answer
		}
	}

	s.logger.Debug("request processed",
		zap.String("query_id", q.ID),
		zap.String("mode", string(q.Mode)),
		zap.Int("results", len(resp.Results)),
		zap.Bool("error", resp.Error != ""))

	return finalize(resp, start)
}

// ProcessRequestStream runs the pipeline and emits response fragments on
// the returned channel. Validation failures are returned immediately as an
// error; every later failure arrives as a fragment. The channel closes
// after the single fragment with IsFinal set.
func (s *Service) ProcessRequestStream(ctx context.Context, q *models.Query) (<-chan models.Response, error) {
	start := time.Now()
	if q == nil {
		q = &models.Query{}
	}

	prepared, err := s.proc.Prepare(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make(chan models.Response)
	go func() {
		defer close(out)
		s.stream(ctx, prepared, out, start)
	}()
	return out, nil
}

// stream emits fragments for one request. Exactly one emitted fragment has
// IsFinal set; cancellation produces a terminal fragment carrying the
// context error when the receiver is still listening.
func (s *Service) stream(ctx context.Context, prepared *processor.PreparedQuery, out chan<- models.Response, start time.Time) {
	q := prepared.Query

	if prepared.Tool != nil && s.exec != nil {
		resp := s.exec.Execute(ctx, prepared.Tool, q)
		resp.IsStreaming = true
		s.sendFinal(out, *finalize(resp, start))
		return
	}

	results, err := s.gen.List(ctx, q.Text(), q.Site, q.MaxResults)
	if err != nil {
		resp := models.NewErrorResponse(q, stageError("retrieval", err))
		resp.IsStreaming = true
		s.sendFinal(out, *finalize(resp, start))
		return
	}
	if results == nil {
		results = []models.Result{}
	}

	if q.Mode == models.ModeList {
		resp := models.NewResponse(q)
		resp.Results = results
		resp.IsStreaming = true
		s.sendFinal(out, *finalize(resp, start))
		return
	}

	// Results go out first so clients can render while text streams.
	batch := models.NewResponse(q)
	batch.Results = results
	batch.IsStreaming = true
	batch.TotalResults = len(results)
	if !s.send(ctx, out, *batch) {
		s.sendCancellation(ctx, out, q, start)
		return
	}

	ch, err := s.gen.GenerateStream(ctx, q.Text(), results, q.Mode)
	if err != nil {
		resp := models.NewErrorResponse(q, stageError("generation", err))
		resp.Results = results
		resp.IsStreaming = true
		s.sendFinal(out, *finalize(resp, start))
		return
	}

	var full []byte
	for chunk := range ch {
		if chunk.Err != nil {
			resp := models.NewErrorResponse(q, stageError("generation", chunk.Err))
			resp.Results = results
			resp.IsStreaming = true
			s.sendFinal(out, *finalize(resp, start))
			return
		}

		full = append(full, chunk.Content...)
		frag := models.NewResponse(q)
		frag.IsStreaming = true
		setModeText(frag, q.Mode, chunk.Content)
		if !s.send(ctx, out, *frag) {
			s.sendCancellation(ctx, out, q, start)
			return
		}
	}

	if err := ctx.Err(); err != nil {
		s.sendCancellation(ctx, out, q, start)
		return
	}

	resp := models.NewResponse(q)
	resp.Results = results
	resp.IsStreaming = true
	setModeText(resp, q.Mode, string(full))
	s.sendFinal(out, *finalize(resp, start))
}

// send delivers an intermediate fragment unless the context ends first.
func (s *Service) send(ctx context.Context, out chan<- models.Response, resp models.Response) bool {
	select {
	case out <- resp:
		return true
	case <-ctx.Done():
		return false
	}
}

// sendFinal delivers the terminal fragment. Unlike send it does not yield
// to the context: a canceled request still gets its cancellation fragment
// as long as the receiver keeps draining. The grace period bounds the wait
// when the receiver is gone.
func (s *Service) sendFinal(out chan<- models.Response, resp models.Response) {
	select {
	case out <- resp:
	case <-time.After(finalSendGrace):
	}
}

// sendCancellation emits the terminal fragment that marks a canceled stream.
func (s *Service) sendCancellation(ctx context.Context, out chan<- models.Response, q *models.Query, start time.Time) {
	err := ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	resp := models.NewErrorResponse(q, stageError("streaming", err))
	resp.IsStreaming = true
	s.sendFinal(out, *finalize(resp, start))
}

// setModeText routes generated text into the field owned by the mode.
func setModeText(resp *models.Response, mode models.Mode, text string) {
	switch mode {
	case models.ModeSummarize:
		resp.Summary = text
	case models.ModeGenerate:
		resp.GeneratedResponse = text
	}
}

// stageError labels a stage failure, marking cancellations so callers can
// tell them apart from system failures.
func stageError(stage string, err error) string {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("request canceled during %s: %v", stage, err)
	}
	return fmt.Sprintf("%s failed: %v", stage, err)
}

// finalize stamps the terminal fragment fields.
func finalize(resp *models.Response, start time.Time) *models.Response {
	if resp.Results == nil {
		resp.Results = []models.Result{}
	}
	if resp.TotalResults == 0 {
		resp.TotalResults = len(resp.Results)
	}
	resp.ProcessingTimeMs = time.Since(start).Milliseconds()
	resp.IsFinal = true
	return resp
}
