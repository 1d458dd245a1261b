package service

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/noah-isme/ipu-result-api/internal/dto"
	"github.com/noah-isme/ipu-result-api/internal/extract"
	"github.com/noah-isme/ipu-result-api/internal/models"
	"github.com/noah-isme/ipu-result-api/internal/repository"
	"github.com/noah-isme/ipu-result-api/internal/walker"
	"github.com/noah-isme/ipu-result-api/pkg/cache"
	appErrors "github.com/noah-isme/ipu-result-api/pkg/errors"
	"github.com/noah-isme/ipu-result-api/pkg/jobs"
)

// JobTypeImport tags queued import jobs.
const JobTypeImport = "import"

const defaultImportSource = "api"

type importJobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	FindByID(ctx context.Context, id string) (*models.ImportJob, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*models.ImportJob, error)
	Pages(ctx context.Context, id string) ([]string, error)
	MarkProcessing(ctx context.Context, id string) error
	Finish(ctx context.Context, job *models.ImportJob) error
	ListUnfinished(ctx context.Context, limit int) ([]string, error)
}

type recordSaver interface {
	Save(ctx context.Context, importID string, subjects []*models.Subject, students []*models.Student) (repository.SaveSummary, error)
}

type subjectCatalogue interface {
	FindByIDs(ctx context.Context, ids []int) (map[int]*models.Subject, error)
}

type pdfConverter interface {
	Convert(ctx context.Context, data []byte) ([]string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type documentArchive interface {
	Save(name string, data []byte) (string, error)
	Exists(name string) bool
	Open(name string) (io.ReadCloser, error)
}

// ParsedDocument is everything extracted from the pages of one document.
type ParsedDocument struct {
	Subjects []*models.Subject
	Roster   *models.Roster
	Stats    walker.WalkStats
	Pages    map[extract.PageKind]int
	// Unfiled counts results that could not be placed in the roster, such as
	// results read from a page whose header carried no semester.
	Unfiled int
}

// ParsePages classifies and walks every page with tpl. Subjects found on scheme
// pages fill in paper credits the result pages did not carry.
func ParsePages(pages []string, tpl walker.Template) *ParsedDocument {
	doc := &ParsedDocument{
		Roster: models.NewRoster(),
		Pages:  make(map[extract.PageKind]int),
	}
	catalogue := make(map[int]*models.Subject)
	var results []*models.Result

	for _, page := range pages {
		kind := extract.Classify(page)
		doc.Pages[kind]++
		switch kind {
		case extract.PageSubjects:
			for _, subject := range tpl.CollectSubjects(page) {
				if _, seen := catalogue[subject.PaperID]; seen {
					continue
				}
				catalogue[subject.PaperID] = subject
				doc.Subjects = append(doc.Subjects, subject)
			}
		case extract.PageResults:
			found, stats := tpl.CollectResults(page)
			results = append(results, found...)
			doc.Stats.Blocks += stats.Blocks
			doc.Stats.Marks += stats.Marks
			doc.Stats.SkewedBlocks += stats.SkewedBlocks
			doc.Stats.Dropped += stats.Dropped
		}
	}

	for _, res := range results {
		res.ApplyCredits(catalogue)
		if err := doc.Roster.Add(res); err != nil {
			doc.Unfiled++
		}
	}
	return doc
}

// ImportService accepts documents, extracts results from them in the
// background and stores what it finds.
type ImportService struct {
	jobs      importJobRepository
	records   recordSaver
	subjects  subjectCatalogue
	converter pdfConverter
	queue     jobEnqueuer
	archive   documentArchive
	cache     *CacheService
	metrics   *MetricsService
	template  walker.Template
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// ImportServiceConfig carries the optional collaborators of ImportService.
type ImportServiceConfig struct {
	Converter pdfConverter
	Archive   documentArchive
	Cache     *CacheService
	Metrics   *MetricsService
	Template  walker.Template
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewImportService constructs an ImportService. Jobs run inline until SetQueue is called.
func NewImportService(jobRepo importJobRepository, records recordSaver, subjects subjectCatalogue, cfg ImportServiceConfig) *ImportService {
	if cfg.Validator == nil {
		cfg.Validator = validator.New()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Template == (walker.Template{}) {
		cfg.Template = walker.DefaultTemplate()
	}
	return &ImportService{
		jobs:      jobRepo,
		records:   records,
		subjects:  subjects,
		converter: cfg.Converter,
		archive:   cfg.Archive,
		cache:     cfg.Cache,
		metrics:   cfg.Metrics,
		template:  cfg.Template,
		validator: cfg.Validator,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// SetQueue routes new jobs through q instead of processing them inline.
func (s *ImportService) SetQueue(q jobEnqueuer) {
	s.queue = q
}

// Fingerprint is the BLAKE2b-256 digest of the pages, in order.
func Fingerprint(pages []string) string {
	h, _ := blake2b.New256(nil)
	for _, page := range pages {
		_, _ = h.Write([]byte(page))
		_, _ = h.Write([]byte{'\f'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Submit records a document and schedules its extraction. Pages identical to
// an earlier submission return the earlier job marked as a duplicate.
func (s *ImportService) Submit(ctx context.Context, req dto.ImportRequest) (*dto.ImportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}
	fingerprint := Fingerprint(req.Pages)
	existing, err := s.jobs.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check previous imports")
	}
	if existing != nil {
		s.logger.Info("duplicate import", zap.String("job_id", existing.ID), zap.String("source", req.Source))
		return &dto.ImportJobResponse{ImportJob: *existing, Duplicate: true}, nil
	}

	source := strings.TrimSpace(req.Source)
	if source == "" {
		source = defaultImportSource
	}
	job := &models.ImportJob{
		ID:          uuid.NewString(),
		Source:      source,
		Fingerprint: fingerprint,
		Status:      models.ImportStatusQueued,
		PageCount:   len(req.Pages),
		CreatedAt:   s.now().UTC(),
		Pages:       req.Pages,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record import")
	}
	s.logger.Info("import submitted", zap.String("job_id", job.ID), zap.String("source", source), zap.Int("pages", job.PageCount))

	if s.queue == nil {
		if err := s.Process(ctx, job.ID); err != nil {
			s.fail(ctx, job.ID, err)
		}
		done, err := s.Get(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		return &dto.ImportJobResponse{ImportJob: *done}, nil
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: JobTypeImport}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue import")
	}
	job.Pages = nil
	return &dto.ImportJobResponse{ImportJob: *job}, nil
}

// SubmitPDF converts a PDF with pdftotext and submits its pages. The original
// file is archived under its fingerprint when an archive is configured, so a
// document first submitted as text gains its PDF on a later upload.
func (s *ImportService) SubmitPDF(ctx context.Context, name string, data []byte) (*dto.ImportJobResponse, error) {
	if s.converter == nil {
		return nil, appErrors.Clone(appErrors.ErrConversion, "pdf conversion is not configured")
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "empty upload")
	}
	pages, err := s.converter.Convert(ctx, data)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConversion, "document has no text pages")
	}
	resp, err := s.Submit(ctx, dto.ImportRequest{Source: filepath.Base(name), Pages: pages})
	if err != nil {
		return nil, err
	}
	if key := archiveKey(resp.Fingerprint); s.archive != nil && !s.archive.Exists(key) {
		if _, err := s.archive.Save(key, data); err != nil {
			s.logger.Warn("archive upload failed", zap.String("job_id", resp.ID), zap.Error(err))
		}
	}
	return resp, nil
}

// Resume queues jobs left unfinished by a previous run and returns how many
// were queued. Without a queue it processes them inline.
func (s *ImportService) Resume(ctx context.Context, limit int) (int, error) {
	ids, err := s.jobs.ListUnfinished(ctx, limit)
	if err != nil {
		return 0, err
	}
	for i, id := range ids {
		if s.queue == nil {
			if err := s.Process(ctx, id); err != nil {
				s.fail(ctx, id, err)
			}
			continue
		}
		if err := s.queue.Enqueue(jobs.Job{ID: id, Type: JobTypeImport}); err != nil {
			return i, err
		}
	}
	if len(ids) > 0 {
		s.logger.Info("resumed unfinished imports", zap.Int("count", len(ids)))
	}
	return len(ids), nil
}

// Source opens the archived PDF of a job. The caller closes the reader.
func (s *ImportService) Source(ctx context.Context, id string) (*models.ImportJob, io.ReadCloser, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	key := archiveKey(job.Fingerprint)
	if s.archive == nil || !s.archive.Exists(key) {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no archived document for this import")
	}
	rc, err := s.archive.Open(key)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open archived document")
	}
	return job, rc, nil
}

func archiveKey(fingerprint string) string {
	return fingerprint + ".pdf"
}

// Get returns a job by id.
func (s *ImportService) Get(ctx context.Context, id string) (*models.ImportJob, error) {
	job, err := s.jobs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load import")
	}
	return job, nil
}

// HandleJob is the queue handler for import jobs.
func (s *ImportService) HandleJob(ctx context.Context, job jobs.Job) error {
	err := s.Process(ctx, job.ID)
	var appErr *appErrors.Error
	if errors.As(err, &appErr) && appErr.Status < 500 {
		return jobs.Permanent(err)
	}
	return err
}

// GiveUp marks a job failed once the queue stops retrying it.
func (s *ImportService) GiveUp(ctx context.Context, job jobs.Job, err error) {
	s.fail(context.WithoutCancel(ctx), job.ID, err)
}

// Process extracts and stores the results of a queued job. Finished jobs are left alone.
func (s *ImportService) Process(ctx context.Context, id string) error {
	start := s.now()
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if job.Status == models.ImportStatusFinished {
		return nil
	}
	if err := s.jobs.MarkProcessing(ctx, id); err != nil {
		return err
	}
	pages, err := s.jobs.Pages(ctx, id)
	if err != nil {
		return err
	}

	doc := ParsePages(pages, s.template)
	for kind, n := range doc.Pages {
		for i := 0; i < n; i++ {
			s.metrics.RecordPage(kind)
		}
	}
	if err := s.fillCredits(ctx, doc); err != nil {
		return err
	}

	saveStart := s.now()
	summary, err := s.records.Save(ctx, id, doc.Subjects, doc.Roster.Students())
	s.metrics.ObserveDBQuery("save_records", s.now().Sub(saveStart))
	if err != nil {
		return err
	}
	s.metrics.RecordExtraction(len(doc.Subjects), doc.Stats)

	job.Status = models.ImportStatusFinished
	job.SubjectCount = summary.Subjects
	job.StudentCount = summary.Students
	job.MarkCount = summary.Marks
	job.SkewedBlocks = doc.Stats.SkewedBlocks
	job.ErrorMessage = nil
	finished := s.now().UTC()
	job.FinishedAt = &finished
	if err := s.jobs.Finish(ctx, job); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, cache.Key("student", "*")); err != nil {
		s.logger.Warn("student cache not invalidated", zap.String("job_id", id), zap.Error(err))
	}
	s.metrics.RecordImport(job.Status, s.now().Sub(start))

	fields := []zap.Field{
		zap.String("job_id", id),
		zap.Int("subjects", summary.Subjects),
		zap.Int("students", summary.Students),
		zap.Int("results", summary.Results),
		zap.Int("marks", summary.Marks),
		zap.Int("skipped_results", summary.SkippedResults),
		zap.Int("skewed_blocks", doc.Stats.SkewedBlocks),
		zap.Int("unfiled", doc.Unfiled),
	}
	if doc.Stats.SkewedBlocks > 0 || doc.Unfiled > 0 {
		s.logger.Warn("import finished with gaps", fields...)
	} else {
		s.logger.Info("import finished", fields...)
	}
	return nil
}

// fillCredits looks up credits the document itself did not supply.
func (s *ImportService) fillCredits(ctx context.Context, doc *ParsedDocument) error {
	if s.subjects == nil {
		return nil
	}
	missing := make(map[int]struct{})
	for _, student := range doc.Roster.Students() {
		for _, res := range student.Results() {
			for id, m := range res.Marks {
				if m.PaperCredit == nil {
					missing[id] = struct{}{}
				}
			}
		}
	}
	if len(missing) == 0 {
		return nil
	}
	ids := make([]int, 0, len(missing))
	for id := range missing {
		ids = append(ids, id)
	}
	known, err := s.subjects.FindByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("load subject credits: %w", err)
	}
	for _, student := range doc.Roster.Students() {
		for _, res := range student.Results() {
			res.ApplyCredits(known)
		}
	}
	return nil
}

func (s *ImportService) fail(ctx context.Context, id string, cause error) {
	msg := cause.Error()
	finished := s.now().UTC()
	job := &models.ImportJob{ID: id, Status: models.ImportStatusFailed, ErrorMessage: &msg, FinishedAt: &finished}
	if err := s.jobs.Finish(ctx, job); err != nil {
		s.logger.Error("failed to record import failure", zap.String("job_id", id), zap.Error(err))
	}
	s.metrics.RecordImport(models.ImportStatusFailed, 0)
	s.logger.Error("import failed", zap.String("job_id", id), zap.Error(cause))
}
