package importapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kasapos/backend/internal/domain/shared"
	csvimport "github.com/kasapos/backend/internal/infrastructure/import"
	"github.com/kasapos/backend/internal/infrastructure/logger"
	"github.com/kasapos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// HeaderPreview is returned once the file's header row has been read
type HeaderPreview struct {
	SessionID   uuid.UUID          `json:"session_id"`
	FileType    csvimport.FileType `json:"file_type"`
	Headers     []string           `json:"headers"`
	PreviewRows []csvimport.RawRow `json:"preview_rows"`
	Suggestion  MappingSuggestion  `json:"suggestion"`
}

// ImportResult is the terminal outcome of ProcessAll
type ImportResult struct {
	SessionID uuid.UUID             `json:"session_id"`
	State     csvimport.ImportState `json:"state"`
	Products  []NormalizedRow       `json:"products"`
	Summary   ResultSummary         `json:"summary"`
	// Classification is set once rows have been matched against the catalog
	Classification *Summary             `json:"classification,omitempty"`
	Superseded     []csvimport.RowError `json:"superseded,omitempty"`
}

// Coordinator drives one file through header reading, mapping, processing and commit.
// Nothing is written to the catalog before Commit.
type Coordinator struct {
	svc     *Service
	session *csvimport.ImportSession

	mu        sync.Mutex
	file      []byte
	headers   []string
	mapping   ColumnMapping
	options   NormalizeOptions
	cancel    context.CancelFunc
	job       *Job
	result    *ImportResult
	plan      *Plan
	committed bool
}

func newCoordinator(svc *Service, fileName string, fileType csvimport.FileType, size int64) *Coordinator {
	return &Coordinator{
		svc:     svc,
		session: csvimport.NewImportSession(fileName, fileType, size),
	}
}

// ID returns the session id
func (c *Coordinator) ID() uuid.UUID {
	return c.session.ID()
}

// Snapshot returns the session state and counters
func (c *Coordinator) Snapshot() csvimport.SessionSnapshot {
	return c.session.Snapshot()
}

// Result returns the last processing result, including a failed one
func (c *Coordinator) Result() *ImportResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// ReadHeaders stores the file and extracts its header row, a short preview and a mapping suggestion
func (c *Coordinator) ReadHeaders(ctx context.Context, fileType csvimport.FileType, data []byte) (*HeaderPreview, error) {
	if limit := c.svc.maxFileSize; limit > 0 && int64(len(data)) > limit {
		_ = c.session.Transition(csvimport.StateFailed)
		return nil, fmt.Errorf("%w: %d bytes, limit %d", csvimport.ErrFileTooLarge, len(data), limit)
	}

	final := c.svc.dispatch(ctx, Request{Kind: RequestReadHeaders, FileType: fileType, File: data}, c.attach, nil)
	if final.Kind != ResponseHeaders {
		_ = c.session.Transition(csvimport.StateFailed)
		return nil, responseError(final)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.session.Transition(csvimport.StateHeadersRead); err != nil {
		return nil, invalidState(err)
	}
	c.file = data
	c.headers = final.Headers
	return &HeaderPreview{
		SessionID:   c.session.ID(),
		FileType:    fileType,
		Headers:     final.Headers,
		PreviewRows: final.PreviewRows,
		Suggestion:  SuggestMapping(final.Headers),
	}, nil
}

// ReadAll returns every non-blank data row without normalizing it
func (c *Coordinator) ReadAll(ctx context.Context) ([]csvimport.RawRow, error) {
	c.mu.Lock()
	state := c.session.State()
	req := Request{Kind: RequestReadAll, FileType: c.session.FileType(), File: c.file}
	c.mu.Unlock()
	if state != csvimport.StateHeadersRead && state != csvimport.StateMappingConfirmed {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("rows cannot be read in state %s", state))
	}

	final := c.svc.dispatch(ctx, req, c.attach, nil)
	if final.Kind != ResponseAllRows {
		return nil, responseError(final)
	}
	return final.Rows, nil
}

// ConfirmMapping records the user's mapping; every required field must name a header
func (c *Coordinator) ConfirmMapping(mapping ColumnMapping, opts NormalizeOptions) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := mapping.Validate(c.headers); err != nil {
		return err
	}
	if err := c.session.Transition(csvimport.StateMappingConfirmed); err != nil {
		return invalidState(err)
	}
	c.mapping = mapping
	c.options = opts
	return nil
}

// ProcessAll normalizes every row and classifies the result against the catalog.
// progress is called after each row. A canceled run returns a result in state
// Canceled and a nil error. When no row is importable the failed result is
// returned together with shared.ErrNoImportableRows.
func (c *Coordinator) ProcessAll(ctx context.Context, progress func(Progress)) (*ImportResult, error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	c.mu.Lock()
	if err := c.session.Transition(csvimport.StateProcessing); err != nil {
		c.mu.Unlock()
		return nil, invalidState(err)
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	req := Request{
		Kind:     RequestProcessAll,
		FileType: c.session.FileType(),
		File:     c.file,
		Mapping:  c.mapping,
		Options:  c.options,
	}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.cancel = nil
		c.mu.Unlock()
		cancel()
	}()

	runCtx, span := telemetry.StartSpan(runCtx, "import.process_all",
		"import.session_id", c.session.ID().String(), "import.file_type", string(req.FileType))
	defer span.End()
	runCtx, log := c.scope(runCtx)
	start := time.Now()

	final := c.svc.dispatch(runCtx, req, c.attach, progress)

	if final.Kind == ResponseCanceled || runCtx.Err() != nil {
		return c.finishCanceled(ctx, start), nil
	}
	if final.Kind != ResponseResult {
		err := responseError(final)
		telemetry.RecordError(span, err)
		_ = c.session.Transition(csvimport.StateFailed)
		c.svc.metrics.RecordImport(ctx, string(req.FileType), string(csvimport.StateFailed), 0, 0, time.Since(start))
		c.recordOutcome(ctx, nil, failHistory)
		return nil, err
	}

	out := final.Result
	result := &ImportResult{
		SessionID: c.session.ID(),
		Products:  out.Products,
		Summary:   out.Summary,
	}
	c.session.SetCounts(out.Summary.Total, out.Summary.Success, out.Summary.Skipped)
	telemetry.SetAttributes(span, "import.rows", out.Summary.Total, "import.skipped", out.Summary.Skipped)

	if out.Summary.Success == 0 {
		result.State = csvimport.StateFailed
		_ = c.session.Transition(csvimport.StateFailed)
		c.store(result, nil)
		c.svc.metrics.RecordImport(ctx, string(req.FileType), string(result.State), 0, out.Summary.Skipped, time.Since(start))
		c.recordOutcome(ctx, out.Summary.Errors, failHistory)
		return result, shared.ErrNoImportableRows
	}

	progress(newProgress(StageClassifying, 0, 1))
	plan, err := c.svc.reconciler.Classify(runCtx, out.Products)
	if runCtx.Err() != nil {
		return c.finishCanceled(ctx, start), nil
	}
	if err != nil {
		telemetry.RecordError(span, err)
		_ = c.session.Transition(csvimport.StateFailed)
		c.recordOutcome(ctx, out.Summary.Errors, failHistory)
		return nil, fmt.Errorf("classify import rows: %w", err)
	}
	progress(newProgress(StageClassifying, 1, 1))

	result.State = csvimport.StateCompleted
	result.Classification = &plan.Summary
	result.Superseded = plan.Superseded
	if err := c.session.Transition(csvimport.StateCompleted); err != nil {
		return nil, invalidState(err)
	}
	c.store(result, plan)
	c.svc.metrics.RecordImport(ctx, string(req.FileType), string(result.State),
		out.Summary.Success, out.Summary.Skipped, time.Since(start))
	log.Info("import processed",
		zap.Int("total", out.Summary.Total),
		zap.Int("success", out.Summary.Success),
		zap.Int("skipped", out.Summary.Skipped),
		zap.Int("new", plan.Summary.New),
		zap.Int("update", plan.Summary.Update),
	)
	return result, nil
}

func (c *Coordinator) finishCanceled(ctx context.Context, start time.Time) *ImportResult {
	_ = c.session.Transition(csvimport.StateCanceled)
	result := &ImportResult{
		SessionID: c.session.ID(),
		State:     csvimport.StateCanceled,
		Products:  []NormalizedRow{},
		Summary:   ResultSummary{Errors: []csvimport.RowError{}},
	}
	c.store(result, nil)
	c.svc.metrics.RecordImport(ctx, string(c.session.FileType()), string(result.State), 0, 0, time.Since(start))
	_, log := c.scope(ctx)
	log.Info("import canceled")
	c.recordOutcome(ctx, nil, cancelHistory)
	return result
}

// scope tags ctx with the session ID so SQL logs can be traced back to the
// import. A request logger in ctx takes precedence over the service logger.
func (c *Coordinator) scope(ctx context.Context) (context.Context, *zap.Logger) {
	base, ok := logger.Lookup(ctx)
	if !ok {
		base = c.svc.logger
	}
	ctx, log := logger.WithImportID(ctx, base, c.session.ID().String())
	return ctx, logger.WithTraceContext(ctx, log)
}

func (c *Coordinator) store(result *ImportResult, plan *Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result = result
	c.plan = plan
}

// Cancel stops a running ProcessAll between rows, or ends an idle session.
// A session that already reached a terminal state is left as is.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.job != nil {
		c.job.Post(Request{Kind: RequestCancel})
	}
	if c.cancel != nil {
		c.cancel()
		return
	}
	if !c.session.State().IsTerminal() {
		_ = c.session.Transition(csvimport.StateCanceled)
	}
}

// Commit writes a completed result to the catalog. Without allowPartial a
// result with skipped rows is refused so the user can fix the file first.
func (c *Coordinator) Commit(ctx context.Context, allowPartial bool) (*CommitReport, error) {
	c.mu.Lock()
	if c.session.State() != csvimport.StateCompleted || c.plan == nil {
		c.mu.Unlock()
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("import cannot be committed in state %s", c.session.State()))
	}
	if c.committed {
		c.mu.Unlock()
		return nil, shared.NewDomainError(shared.CodeInvalidState, "import already committed")
	}
	if skipped := c.result.Summary.Skipped; skipped > 0 && !allowPartial {
		c.mu.Unlock()
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("%d rows were skipped; commit with allowPartial to import the rest", skipped))
	}
	c.committed = true
	plan := c.plan
	c.mu.Unlock()

	ctx, span := telemetry.StartSpan(ctx, "import.commit", "import.session_id", c.session.ID().String())
	defer span.End()
	ctx, log := c.scope(ctx)

	report, err := c.svc.reconciler.Commit(ctx, plan)
	if err != nil {
		telemetry.RecordError(span, err)
		c.mu.Lock()
		c.committed = false
		c.mu.Unlock()
		return report, err
	}
	log.Info("import committed",
		zap.Int("inserted", report.Inserted),
		zap.Int("updated", report.Updated),
		zap.Int("failed", report.Failed),
		zap.Strings("categories_created", report.CategoriesCreated),
	)
	c.mu.Lock()
	rowErrors := append(append([]csvimport.RowError{}, c.result.Summary.Errors...), report.Errors...)
	c.mu.Unlock()
	c.recordOutcome(ctx, rowErrors, commitHistory(report))
	return report, nil
}

func (c *Coordinator) attach(job *Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.job = job
}

func invalidState(err error) error {
	return shared.NewDomainError(shared.CodeInvalidState, err.Error())
}

// responseError turns a non-final or ERROR response into an error
func responseError(r Response) error {
	if r.err != nil {
		return r.err
	}
	if r.Kind == ResponseError {
		return errors.New(r.Message)
	}
	return fmt.Errorf("unexpected import response %q", r.Kind)
}
