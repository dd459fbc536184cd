package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/eduforge/lms-backend/internal/data/repos"
	types "github.com/eduforge/lms-backend/internal/domain/lessons"
	"github.com/eduforge/lms-backend/internal/modules/generation"
	"github.com/eduforge/lms-backend/internal/modules/generation/content"
	"github.com/eduforge/lms-backend/internal/modules/generation/extract"
	"github.com/eduforge/lms-backend/internal/modules/generation/providers"
	"github.com/eduforge/lms-backend/internal/platform/ctxutil"
	"github.com/eduforge/lms-backend/internal/platform/filestore"
	"github.com/eduforge/lms-backend/internal/platform/logger"
)

const maxTitleLength = 255

var validDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

// QuestionGenerator produces a validated question set from lesson text.
type QuestionGenerator interface {
	Generate(ctx context.Context, text string, opts providers.Options) (*generation.Generation, error)
}

// UploadRequest is one lesson upload with its generation settings.
type UploadRequest struct {
	SubjectID    uuid.UUID
	ProfessorID  uuid.UUID
	Title        string
	FileName     string
	DeclaredMime string
	Size         int64
	Content      io.Reader
	Options      providers.Options
	// AssessmentTitle and AssessmentType default to "Assessment for {Title}"
	// and quiz.
	AssessmentTitle string
	AssessmentType  string
}

// Validate applies the request rules that do not need the file itself.
func (r UploadRequest) Validate() error {
	var problems []string
	if r.SubjectID == uuid.Nil {
		problems = append(problems, "Please select a subject.")
	}
	title := strings.TrimSpace(r.Title)
	switch {
	case title == "":
		problems = append(problems, "Please enter a lesson title.")
	case len([]rune(title)) > maxTitleLength:
		problems = append(problems, "Lesson title must not exceed 255 characters.")
	}
	if r.Content == nil {
		problems = append(problems, "Please upload a lesson file.")
	}
	if r.Options.MultipleChoice < 0 {
		problems = append(problems, "Multiple choice count must be at least 0.")
	}
	if r.Options.Identification < 0 {
		problems = append(problems, "Identification count must be at least 0.")
	}
	if r.Options.TrueOrFalse < 0 {
		problems = append(problems, "True/false count must be at least 0.")
	}
	if r.Options.Total() == 0 && r.Options.MultipleChoice >= 0 && r.Options.Identification >= 0 && r.Options.TrueOrFalse >= 0 {
		problems = append(problems, "Please request at least one question.")
	}
	if !validDifficulties[r.Options.Difficulty] {
		problems = append(problems, "Difficulty must be easy, medium, or hard.")
	}
	if r.AssessmentType != "" && !types.ValidAssessmentType(r.AssessmentType) {
		problems = append(problems, "Assessment type must be quiz or regular.")
	}
	if len(problems) > 0 {
		return &extract.ValidationError{Message: strings.Join(problems, " ")}
	}
	return nil
}

// SaveRequest finalises a draft. Nil Items keeps the generated questions;
// nil SectionIDs leaves section assignment untouched.
type SaveRequest struct {
	Items      []generation.AuthoredQuestion
	SectionIDs []uuid.UUID
}

type SavedLesson struct {
	Lesson     *types.Lesson     `json:"lesson"`
	Assessment *types.Assessment `json:"assessment"`
}

type LessonPipeline interface {
	// Stage runs the pipeline and parks the result for review.
	Stage(ctx context.Context, req UploadRequest) (*ReviewDraft, error)
	GetDraft(ctx context.Context, draftID string) (*ReviewDraft, error)
	SaveDraft(ctx context.Context, draftID string, req SaveRequest) (*SavedLesson, error)
	CancelDraft(ctx context.Context, draftID string) error
	// ProcessAndSave runs the pipeline and persists the result without review.
	ProcessAndSave(ctx context.Context, req UploadRequest) (*SavedLesson, error)
	// CreateManual persists an instructor-authored lesson with no file.
	CreateManual(ctx context.Context, req ManualLessonRequest) (*SavedLesson, error)
	// UpdateAssessment replaces the items of the lesson's assessment and,
	// when req.SectionIDs is non-nil, its section links.
	UpdateAssessment(ctx context.Context, lessonID uuid.UUID, req SaveRequest) (*types.Assessment, error)
	DeleteLesson(ctx context.Context, lessonID uuid.UUID) error
	SetAssessmentStatus(ctx context.Context, lessonID uuid.UUID, status string) (*types.Assessment, error)
	MaxUploadBytes() int64
}

type LessonPipelineConfig struct {
	MaxUploadBytes int64
	ReviewTTL      time.Duration
	// TempDir holds the working copy used for validation and extraction.
	TempDir string
}

type lessonPipeline struct {
	db             *gorm.DB
	log            *logger.Logger
	cfg            LessonPipelineConfig
	files          filestore.Store
	reviews        ReviewStore
	generator      QuestionGenerator
	assessments    AssessmentGenerator
	lessonRepo     repos.LessonRepo
	assessmentRepo repos.AssessmentRepo
	logRepo        repos.ProcessingLogRepo
	validator      *extract.Validator
	cleaner        *extract.TextCleaner
	tracer         trace.Tracer
}

func NewLessonPipeline(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg LessonPipelineConfig,
	files filestore.Store,
	reviews ReviewStore,
	generator QuestionGenerator,
	assessments AssessmentGenerator,
	lessonRepo repos.LessonRepo,
	assessmentRepo repos.AssessmentRepo,
	logRepo repos.ProcessingLogRepo,
) LessonPipeline {
	if cfg.ReviewTTL <= 0 {
		cfg.ReviewTTL = time.Hour
	}
	return &lessonPipeline{
		db:             db,
		log:            baseLog.With("service", "LessonPipeline"),
		cfg:            cfg,
		files:          files,
		reviews:        reviews,
		generator:      generator,
		assessments:    assessments,
		lessonRepo:     lessonRepo,
		assessmentRepo: assessmentRepo,
		logRepo:        logRepo,
		validator:      extract.NewValidator(cfg.MaxUploadBytes),
		cleaner:        extract.NewTextCleaner(),
		tracer:         otel.Tracer("github.com/eduforge/lms-backend/internal/services"),
	}
}

// processed is everything the pipeline learned about an upload before
// anything is persisted.
type processed struct {
	storageKey string
	fileName   string
	fileSize   int64
	mime       string
	text       string
	generation *generation.Generation
}

func (p *processed) meta() GenerationMeta {
	return GenerationMeta{
		ProviderUsed:    p.generation.ProviderUsed,
		Mode:            p.generation.Mode,
		ChunksProcessed: p.generation.ChunksProcessed,
		RetryUsed:       p.generation.RetryUsed,
	}
}

func (lp *lessonPipeline) Stage(ctx context.Context, req UploadRequest) (*ReviewDraft, error) {
	p, err := lp.process(ctx, req)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	draft := &ReviewDraft{
		ID:               uuid.NewString(),
		SubjectID:        req.SubjectID,
		ProfessorID:      req.ProfessorID,
		Title:            strings.TrimSpace(req.Title),
		StorageKey:       p.storageKey,
		FileName:         p.fileName,
		FileSize:         p.fileSize,
		MimeType:         p.mime,
		ExtractedContent: p.text,
		AssessmentTitle:  assessmentTitle(req),
		AssessmentType:   req.AssessmentType,
		Questions:        p.generation.Questions,
		Meta:             p.meta(),
		CreatedAt:        now,
		ExpiresAt:        now.Add(lp.cfg.ReviewTTL),
	}
	if err := lp.reviews.Put(ctx, draft, lp.cfg.ReviewTTL); err != nil {
		lp.discardFile(ctx, p.storageKey)
		lp.log.Error("Staging review draft failed", append(ctxutil.LogFields(ctx), "error", err)...)
		return nil, fmt.Errorf("stage review draft: %w", err)
	}
	lp.log.Info("Review draft staged", append(ctxutil.LogFields(ctx),
		"draft_id", draft.ID,
		"lesson_title", draft.Title,
		"professor_id", draft.ProfessorID,
		"expires_at", draft.ExpiresAt,
	)...)
	return draft, nil
}

func (lp *lessonPipeline) GetDraft(ctx context.Context, draftID string) (*ReviewDraft, error) {
	return lp.reviews.Get(ctx, draftID)
}

func (lp *lessonPipeline) SaveDraft(ctx context.Context, draftID string, req SaveRequest) (*SavedLesson, error) {
	draft, err := lp.reviews.Get(ctx, draftID)
	if err != nil {
		return nil, err
	}
	set := draft.Questions
	if req.Items != nil {
		set, err = generation.FromAuthored(req.Items)
		if err != nil {
			return nil, err
		}
	}
	if set == nil {
		set = generation.NewQuestionSet()
	}

	saved, err := lp.persist(ctx, draft, set, req.SectionIDs)
	if err != nil {
		return nil, err
	}
	if err := lp.reviews.Delete(ctx, draftID); err != nil {
		lp.log.Warn("Review draft cleanup failed", append(ctxutil.LogFields(ctx), "draft_id", draftID, "error", err)...)
	}
	return saved, nil
}

func (lp *lessonPipeline) CancelDraft(ctx context.Context, draftID string) error {
	draft, err := lp.reviews.Get(ctx, draftID)
	if err != nil {
		return err
	}
	lp.discardFile(ctx, draft.StorageKey)
	if err := lp.reviews.Delete(ctx, draftID); err != nil {
		return fmt.Errorf("delete review draft: %w", err)
	}
	lp.log.Info("Review draft cancelled", append(ctxutil.LogFields(ctx), "draft_id", draftID)...)
	return nil
}

func (lp *lessonPipeline) ProcessAndSave(ctx context.Context, req UploadRequest) (*SavedLesson, error) {
	p, err := lp.process(ctx, req)
	if err != nil {
		return nil, err
	}
	draft := &ReviewDraft{
		SubjectID:        req.SubjectID,
		ProfessorID:      req.ProfessorID,
		Title:            strings.TrimSpace(req.Title),
		StorageKey:       p.storageKey,
		FileName:         p.fileName,
		FileSize:         p.fileSize,
		MimeType:         p.mime,
		ExtractedContent: p.text,
		AssessmentTitle:  assessmentTitle(req),
		AssessmentType:   req.AssessmentType,
		Questions:        p.generation.Questions,
		Meta:             p.meta(),
	}
	saved, err := lp.persist(ctx, draft, p.generation.Questions, nil)
	if err != nil {
		lp.discardFile(ctx, p.storageKey)
		return nil, err
	}
	return saved, nil
}

func (lp *lessonPipeline) MaxUploadBytes() int64 { return lp.validator.MaxBytes }

func (lp *lessonPipeline) DeleteLesson(ctx context.Context, lessonID uuid.UUID) error {
	lesson, err := lp.lessonRepo.GetByID(ctx, nil, lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrLessonNotFound
	}
	if err != nil {
		return fmt.Errorf("load lesson: %w", err)
	}
	if err := lp.lessonRepo.DeleteCascade(ctx, nil, lessonID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return fmt.Errorf("delete lesson: %w", err)
	}
	if lesson.HasFile() {
		lp.discardFile(ctx, lesson.Path)
	}
	lp.log.Info("Lesson deleted", append(ctxutil.LogFields(ctx), "lesson_id", lessonID)...)
	return nil
}

func (lp *lessonPipeline) SetAssessmentStatus(ctx context.Context, lessonID uuid.UUID, status string) (*types.Assessment, error) {
	if !types.ValidStatus(status) {
		return nil, ErrInvalidStatus
	}
	a, err := lp.assessmentRepo.FirstByLessonID(ctx, nil, lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	if err := lp.assessmentRepo.UpdateStatus(ctx, nil, a.ID, status); err != nil {
		return nil, fmt.Errorf("update assessment status: %w", err)
	}
	a.Status = status
	lp.log.Info("Assessment status changed", append(ctxutil.LogFields(ctx), "lesson_id", lessonID, "assessment_id", a.ID, "status", status)...)
	return a, nil
}

// process runs upload, validation, extraction, generation and parsing. On
// failure the stored file has already been removed.
func (lp *lessonPipeline) process(ctx context.Context, req UploadRequest) (*processed, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := lp.validator.CheckSize(req.Size); err != nil {
		return nil, err
	}
	ctx, span := lp.tracer.Start(ctx, "lesson_pipeline.process")
	defer span.End()

	log := lp.log.With(append(ctxutil.LogFields(ctx),
		"lesson_title", strings.TrimSpace(req.Title),
		"file_name", req.FileName,
		"professor_id", req.ProfessorID,
	)...)

	// upload
	ext := strings.ToLower(filepath.Ext(req.FileName))
	key := fmt.Sprintf("lessons/%s%s", uuid.NewString(), ext)
	tmpPath, size, err := lp.spool(req.Content, ext)
	if err != nil {
		log.Error("Lesson Processing: Upload Stage Failed", "stage", types.StageUpload, "status", "failed", "error", err)
		var ve *extract.ValidationError
		if errors.As(err, &ve) {
			return nil, fail(span, ve)
		}
		return nil, fail(span, fmt.Errorf("read upload: %w", err))
	}
	defer os.Remove(tmpPath)
	if err := lp.storeFile(ctx, key, tmpPath); err != nil {
		log.Error("Lesson Processing: Upload Stage Failed", "stage", types.StageUpload, "status", "failed", "error", err)
		return nil, fail(span, err)
	}
	log.Info("Lesson Processing: Upload Stage", "stage", types.StageUpload, "status", "success", "file_size", size, "mime_type", req.DeclaredMime)

	failed := func(stage string, err error) (*processed, error) {
		lp.discardFile(ctx, key)
		log.Error("Lesson Processing: Stage Failed", "stage", stage, "status", "failed", "error", err)
		span.SetAttributes(attribute.String("lesson.failed_stage", stage))
		return nil, fail(span, err)
	}

	// validation
	res := lp.validator.ValidateAll(extract.UploadedFile{Name: req.FileName, DeclaredMime: req.DeclaredMime, Size: size}, tmpPath)
	if !res.Valid {
		return failed(types.StageValidation, res.Err())
	}
	log.Info("Lesson Processing: Validation Stage", "stage", types.StageValidation, "status", "success", "mime_type", res.Mime)

	// extraction
	ex, err := extract.ForMimeType(res.Mime)
	if err != nil {
		return failed(types.StageExtraction, err)
	}
	raw, err := ex.Extract(tmpPath)
	if err != nil {
		return failed(types.StageExtraction, err)
	}
	text := lp.cleaner.Clean(raw)
	if text == "" {
		return failed(types.StageExtraction, &extract.ExtractionError{Format: ex.Format(), Err: errors.New("no text content found")})
	}
	log.Info("Lesson Processing: Extraction Stage",
		"stage", types.StageExtraction,
		"status", "success",
		"text_length", len(text),
		"word_count", content.CountWords(text),
	)

	// ai_generation
	gen, err := lp.generator.Generate(ctx, text, req.Options)
	if err != nil {
		return failed(types.StageAIGeneration, err)
	}
	log.Info("Lesson Processing: AI Generation Stage",
		"stage", types.StageAIGeneration,
		"status", "success",
		"provider_used", gen.ProviderUsed,
		"mode", gen.Mode,
		"chunks_processed", gen.ChunksProcessed,
		"retry_used", gen.RetryUsed,
	)

	// parsing
	if err := generation.Validate(gen.Questions); err != nil {
		return failed(types.StageParsing, err)
	}
	counts := gen.Questions.Counts()
	log.Info("Lesson Processing: Parsing Stage",
		"stage", types.StageParsing,
		"status", "success",
		"multiple_choice_count", counts[generation.TypeMultipleChoice],
		"identification_count", counts[generation.TypeIdentification],
		"true_or_false_count", counts[generation.TypeTrueOrFalse],
	)

	return &processed{
		storageKey: key,
		fileName:   req.FileName,
		fileSize:   size,
		mime:       res.Mime,
		text:       text,
		generation: gen,
	}, nil
}

// persist writes the lesson, its processing logs, the assessment and the
// section links in one transaction.
func (lp *lessonPipeline) persist(ctx context.Context, draft *ReviewDraft, set *generation.QuestionSet, sectionIDs []uuid.UUID) (*SavedLesson, error) {
	ctx, span := lp.tracer.Start(ctx, "lesson_pipeline.persist")
	defer span.End()

	var saved SavedLesson
	err := lp.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		text := draft.ExtractedContent
		lesson := &types.Lesson{
			SubjectID:        draft.SubjectID,
			ProfessorID:      draft.ProfessorID,
			Title:            draft.Title,
			Path:             draft.StorageKey,
			FileName:         draft.FileName,
			FileSize:         draft.FileSize,
			MimeType:         draft.MimeType,
			ExtractedContent: &text,
		}
		if _, err := lp.lessonRepo.Create(ctx, tx, lesson); err != nil {
			return &generation.PersistenceError{Op: "create lesson", Err: err}
		}

		assessment, err := lp.assessments.Generate(ctx, tx, lesson, set, GenerateConfig{
			Title: draft.AssessmentTitle,
			Type:  draft.AssessmentType,
		})
		if err != nil {
			return err
		}
		if sectionIDs != nil {
			if err := lp.assessmentRepo.SyncSections(ctx, tx, assessment.ID, sectionIDs); err != nil {
				return &generation.PersistenceError{Op: "assign sections", Err: err}
			}
		}

		logs := stageLogs(lesson.ID, draft, set, assessment, len(sectionIDs))
		if _, err := lp.logRepo.Create(ctx, tx, logs); err != nil {
			return &generation.PersistenceError{Op: "record processing logs", Err: err}
		}
		saved = SavedLesson{Lesson: lesson, Assessment: assessment}
		return nil
	})
	if err != nil {
		lp.log.Error("Lesson Processing: Saving Stage Failed", append(ctxutil.LogFields(ctx),
			"stage", types.StageSaving,
			"status", "failed",
			"lesson_title", draft.Title,
			"error", err,
		)...)
		var pe *generation.PersistenceError
		if !errors.As(err, &pe) {
			err = &generation.PersistenceError{Op: "save lesson", Err: err}
		}
		return nil, fail(span, err)
	}
	lp.log.Info("Lesson Processing: Saving Stage", append(ctxutil.LogFields(ctx),
		"stage", types.StageSaving,
		"status", "success",
		"lesson_id", saved.Lesson.ID,
		"assessment_id", saved.Assessment.ID,
		"total_items", len(saved.Assessment.Items),
	)...)
	return &saved, nil
}

// stageLogs records every stage of a successful run against the lesson.
func stageLogs(lessonID uuid.UUID, draft *ReviewDraft, set *generation.QuestionSet, a *types.Assessment, sections int) []*types.LessonProcessingLog {
	counts := set.Counts()
	entry := func(stage, msg, provider string, meta map[string]any) *types.LessonProcessingLog {
		var raw datatypes.JSON
		if meta != nil {
			if b, err := json.Marshal(meta); err == nil {
				raw = datatypes.JSON(b)
			}
		}
		return &types.LessonProcessingLog{
			LessonID: lessonID,
			Stage:    stage,
			Status:   types.LogStatusSuccess,
			Message:  msg,
			Provider: provider,
			Metadata: raw,
		}
	}
	return []*types.LessonProcessingLog{
		entry(types.StageUpload, "File uploaded successfully", "", map[string]any{
			"file_name": draft.FileName,
			"file_size": draft.FileSize,
			"mime_type": draft.MimeType,
		}),
		entry(types.StageValidation, "File validation passed", "", nil),
		entry(types.StageExtraction, "Text extracted successfully", "", map[string]any{
			"text_length": len(draft.ExtractedContent),
			"word_count":  content.CountWords(draft.ExtractedContent),
		}),
		entry(types.StageAIGeneration, "AI generation successful", draft.Meta.ProviderUsed, map[string]any{
			"mode":             draft.Meta.Mode,
			"chunks_processed": draft.Meta.ChunksProcessed,
			"retry_used":       draft.Meta.RetryUsed,
		}),
		entry(types.StageParsing, "Response parsed successfully", "", map[string]any{
			"multiple_choice_count": counts[generation.TypeMultipleChoice],
			"identification_count":  counts[generation.TypeIdentification],
			"true_or_false_count":   counts[generation.TypeTrueOrFalse],
		}),
		entry(types.StageSaving, "Assessment saved successfully", "", map[string]any{
			"assessment_id":     a.ID,
			"total_items":       len(a.Items),
			"sections_assigned": sections,
		}),
	}
}

// spool copies the upload to a temp file and returns its path and size. It
// stops one byte past the limit so oversized uploads never reach the store.
func (lp *lessonPipeline) spool(r io.Reader, ext string) (string, int64, error) {
	f, err := os.CreateTemp(lp.cfg.TempDir, "lesson-*"+ext)
	if err != nil {
		return "", 0, err
	}
	limit := lp.validator.MaxBytes
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = extract.TooLarge(limit)
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", 0, err
	}
	return f.Name(), n, nil
}

func (lp *lessonPipeline) storeFile(ctx context.Context, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	if err := lp.files.Put(ctx, key, f); err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	return nil
}

// discardFile removes a stored upload. Failures are logged only.
func (lp *lessonPipeline) discardFile(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := lp.files.Delete(context.WithoutCancel(ctx), key); err != nil {
		lp.log.Warn("Stored file cleanup failed", append(ctxutil.LogFields(ctx), "storage_key", key, "error", err)...)
	}
}

func assessmentTitle(req UploadRequest) string {
	if t := strings.TrimSpace(req.AssessmentTitle); t != "" {
		return t
	}
	return "Assessment for " + strings.TrimSpace(req.Title)
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
