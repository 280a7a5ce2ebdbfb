package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"doclib/internal/apperr"
	"doclib/internal/events"
	"doclib/internal/logging"
	"doclib/internal/model"
	"doclib/internal/progress"
	"doclib/internal/repository"
	"doclib/internal/storage"
)

// PDFContentType is the only content type accepted for uploads.
const PDFContentType = "application/pdf"

// Caller-facing validation messages.
const (
	MsgNoFile  = "No file provided"
	MsgOnlyPDF = "Only PDF files are allowed"
)

var tracer = otel.Tracer("doclib/service")

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload stores the content, appends its metadata record and removes the
	// stored content again if the record cannot be persisted.
	// uploadID, when non-empty, names the progress channel for this transfer.
	Upload(ctx context.Context, r io.Reader, filename, contentType string, size int64, uploadID string) (*model.Document, error)

	// List returns every record in insertion order.
	List(ctx context.Context) ([]model.Document, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Open streams the stored content of a document.
	Open(ctx context.Context, id string) (io.ReadCloser, *model.Document, error)

	// Delete removes a document record and its stored content.
	Delete(ctx context.Context, id string) error

	// Seed saves the static records when the library is empty.
	Seed(ctx context.Context) (bool, error)
}

// Options carries the optional collaborators of the document service.
type Options struct {
	Location  *time.Location
	Progress  *progress.Hub
	Publisher events.Publisher
	Now       func() time.Time
	NewID     func() string
}

type documentService struct {
	store     storage.Storage
	repo      repository.DocumentRepository
	loc       *time.Location
	hub       *progress.Hub
	publisher events.Publisher
	now       func() time.Time
	newID     func() string
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, opts Options) DocumentService {
	s := &documentService{
		store:     store,
		repo:      repo,
		loc:       opts.Location,
		hub:       opts.Progress,
		publisher: opts.Publisher,
		now:       opts.Now,
		newID:     opts.NewID,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.publisher == nil {
		s.publisher = events.Noop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = func() string { return uuid.New().String() }
	}
	return s
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, filename, contentType string, size int64, uploadID string) (*model.Document, error) {
	if r == nil || filename == "" {
		err := apperr.NewValidationError(MsgNoFile)
		s.finish(uploadID, 0, err)
		return nil, err
	}
	if contentType != PDFContentType {
		err := apperr.NewValidationError(MsgOnlyPDF)
		s.finish(uploadID, 0, err)
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "documents.upload")
	defer span.End()

	id := s.newID()
	key := id + "-" + filepath.Base(filename)
	span.SetAttributes(attribute.String("document.id", id), attribute.Int64("document.declared_size", size))

	opt := storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": filename},
	}
	if s.hub != nil && uploadID != "" {
		opt.OnProgress = s.hub.Reporter(uploadID)
	}

	obj, err := s.store.Put(ctx, key, r, opt)
	if err != nil {
		err = fmt.Errorf("upload to storage: %w", err)
		s.finish(uploadID, 0, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage")
		return nil, err
	}

	doc := model.Document{
		ID:         id,
		Name:       filename,
		Size:       FormatSize(obj.Size),
		UploadedAt: FormatUploadedAt(s.now(), s.loc),
		Path:       obj.Location,
	}
	if err := s.repo.Append(ctx, doc); err != nil {
		if delErr := s.store.Delete(ctx, obj.Location); delErr != nil {
			err = fmt.Errorf("save metadata: %w; rollback delete failed: %v", err, delErr)
		} else {
			err = fmt.Errorf("save metadata: %w", err)
		}
		s.finish(uploadID, 0, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "metadata")
		return nil, err
	}

	s.finish(uploadID, obj.Size, nil)
	s.publish(ctx, events.Uploaded(doc))

	l := logging.L()
	l.Info().
		Str("event", "document_uploaded").
		Str("document_id", doc.ID).
		Str("name", doc.Name).
		Int64("bytes", obj.Size).
		Msg("")
	return &doc, nil
}

func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	ctx, span := tracer.Start(ctx, "documents.list")
	defer span.End()

	docs, err := s.repo.LoadAll(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if docs == nil {
		docs = []model.Document{}
	}
	span.SetAttributes(attribute.Int("documents.count", len(docs)))
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, apperr.ErrNotFound
	}
	docs, err := s.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		if docs[i].ID == id {
			doc := docs[i]
			return &doc, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *documentService) Open(ctx context.Context, id string) (io.ReadCloser, *model.Document, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !doc.HasBinary() {
		return nil, nil, apperr.ErrNotFound
	}
	rc, _, err := s.store.Get(ctx, doc.Path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, fmt.Errorf("open content: %w", err)
	}
	return rc, doc, nil
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperr.ErrNotFound
	}
	ctx, span := tracer.Start(ctx, "documents.delete")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", id))

	found, err := s.repo.Remove(ctx, id)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !found {
		return apperr.ErrNotFound
	}
	s.publish(ctx, events.Deleted(id))

	l := logging.L()
	l.Info().Str("event", "document_deleted").Str("document_id", id).Msg("")
	return nil
}

func (s *documentService) Seed(ctx context.Context) (bool, error) {
	docs, err := s.repo.LoadAll(ctx)
	if err != nil {
		return false, err
	}
	if len(docs) > 0 {
		return false, nil
	}
	if err := s.repo.SaveAll(ctx, StaticDocuments()); err != nil {
		return false, err
	}
	return true, nil
}

func (s *documentService) finish(uploadID string, written int64, err error) {
	if s.hub == nil || uploadID == "" {
		return
	}
	s.hub.Finish(uploadID, written, err)
}

// publish is best-effort: a broker outage never fails the request.
func (s *documentService) publish(ctx context.Context, ev events.DocumentEvent) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		l := logging.L()
		l.Warn().
			Str("event", "document_event_publish_failed").
			Str("type", ev.Type).
			Str("document_id", ev.DocumentID).
			Err(err).
			Msg("")
	}
}
