package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"

	"shipdocs/internal/accuracy"
	"shipdocs/internal/config"
	"shipdocs/internal/content"
	"shipdocs/internal/domain"
	"shipdocs/internal/intake"
	"shipdocs/internal/oracle"
	"shipdocs/internal/port"
	"shipdocs/internal/reconcile"
)

// ProcessRequest is the DTO for a shipment processing request.
type ProcessRequest struct {
	Uploads []intake.Upload
	// GroundTruth, when supplied, triggers accuracy scoring of the result.
	GroundTruth map[string]interface{}
}

// ProcessOutput is the full response of one processing request: the stored
// record ID, the reconciled record, per-document reports, and the optional
// accuracy report.
type ProcessOutput struct {
	RecordID string                  `json:"record_id"`
	Record   *domain.ShipmentRecord  `json:"record"`
	Reports  []domain.DocumentReport `json:"documents"`
	Accuracy *accuracy.Report        `json:"accuracy,omitempty"`
}

// ShipmentService defines the shipment document processing contract.
type ShipmentService interface {
	ProcessDocuments(ctx context.Context, req *ProcessRequest) (*ProcessOutput, error)
	GetRecord(ctx context.Context, id string) (*port.StoredRecord, error)
	ListRecords(ctx context.Context) ([]port.StoredRecord, error)
	UpdateRecord(ctx context.Context, id string, edited *domain.ShipmentRecord) (*port.StoredRecord, error)
	Reaggregate(record *domain.ShipmentRecord, sets []domain.FieldSet)
	DeleteRecord(ctx context.Context, id string) error
	GetRawDocument(ctx context.Context, key string) ([]byte, error)
}

type shipmentService struct {
	cfg       *config.Config
	extractor *content.Extractor
	oracle    port.FieldOracle
	storage   port.ObjectStorage
	store     port.RecordStore

	mu   sync.Mutex
	seen map[string]bool // fingerprints of documents accepted this session
}

// NewShipmentService creates a new ShipmentService implementation.
func NewShipmentService(
	cfg *config.Config,
	extractor *content.Extractor,
	fieldOracle port.FieldOracle,
	storage port.ObjectStorage,
	recordStore port.RecordStore,
) ShipmentService {
	return &shipmentService{
		cfg:       cfg,
		extractor: extractor,
		oracle:    fieldOracle,
		storage:   storage,
		store:     recordStore,
		seen:      make(map[string]bool),
	}
}

// ProcessDocuments runs the full pipeline for one upload batch: intake,
// raw-payload storage, content extraction, the single joint oracle call, and
// reconciliation. Per-document failures become report entries; an oracle
// failure fails the whole request.
func (s *shipmentService) ProcessDocuments(ctx context.Context, req *ProcessRequest) (*ProcessOutput, error) {
	docs, skipReports := s.ingest(req.Uploads)
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no processable documents in request", domain.ErrNoContent)
	}

	keys, err := s.storeRawDocuments(ctx, docs)
	if err != nil {
		return nil, err
	}

	extractions, extractReports := s.extractor.ExtractAll(ctx, docs)
	reports := append(skipReports, extractReports...)
	if len(extractions) == 0 {
		return nil, fmt.Errorf("%w: no document yielded usable content", domain.ErrNoContent)
	}

	contents := make([]oracle.DocumentContent, 0, len(extractions))
	names := make([]string, 0, len(extractions))
	for _, ex := range extractions {
		contents = append(contents, oracle.DocumentContent{Name: ex.Doc.Filename, Content: ex.Content})
		names = append(names, ex.Doc.Filename)
	}

	prompt := oracle.BuildPrompt(contents)

	oracleCtx, cancel := context.WithTimeout(ctx, s.cfg.Oracle.Timeout())
	defer cancel()
	fields, err := s.oracle.ExtractFields(oracleCtx, prompt)
	if err != nil {
		log.Printf("service.ProcessDocuments: oracle call failed: %v", err)
		return nil, err
	}

	record := reconcile.Reconcile(
		[]domain.FieldSet{fields},
		[]string{strings.Join(names, ", ")},
	)

	id, err := s.persist(ctx, record, reports, keys)
	if err != nil {
		return nil, err
	}

	out := &ProcessOutput{RecordID: id, Record: record, Reports: reports}
	if req.GroundTruth != nil {
		out.Accuracy = accuracy.Evaluate(record, req.GroundTruth)
		log.Printf("service.ProcessDocuments: accuracy %.2f over %d fields", out.Accuracy.Overall, out.Accuracy.TotalFields)
	}
	return out, nil
}

// ingest classifies and deduplicates the uploads, tracking fingerprints
// across the session so a re-submitted file is reported rather than
// reprocessed.
func (s *shipmentService) ingest(uploads []intake.Upload) ([]domain.RawDocument, []domain.DocumentReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return intake.Ingest(uploads, s.seen)
}

// storeRawDocuments uploads every accepted payload under a fresh uuid key so
// the original file can be retrieved later for preview. Storage failure is
// fatal for the request.
func (s *shipmentService) storeRawDocuments(ctx context.Context, docs []domain.RawDocument) ([]string, error) {
	keys := make([]string, 0, len(docs))
	for i := range docs {
		key := path.Join("raw", uuid.New().String(), docs[i].Filename)
		contentType := "application/pdf"
		if docs[i].Format == domain.FormatXLSX {
			contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		}
		err := s.storage.Upload(ctx, port.UploadInput{
			Key:         key,
			Body:        bytes.NewReader(docs[i].Payload),
			ContentType: contentType,
			Size:        int64(len(docs[i].Payload)),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: storing %s: %v", domain.ErrUploadFailed, docs[i].Filename, err)
		}
		docs[i].StorageKey = key
		keys = append(keys, key)
	}
	return keys, nil
}

// persist saves the record, updating in place when a record for the same
// source documents already exists.
func (s *shipmentService) persist(ctx context.Context, record *domain.ShipmentRecord, reports []domain.DocumentReport, keys []string) (string, error) {
	existing, err := s.store.FindByDocumentKeys(ctx, keys)
	if err != nil {
		return "", fmt.Errorf("looking up existing record: %w", err)
	}
	if existing != "" {
		record.ID = existing
	}

	id, err := s.store.Save(ctx, &port.StoredRecord{
		Record:       *record,
		Reports:      reports,
		DocumentKeys: keys,
	})
	if err != nil {
		return "", fmt.Errorf("saving record: %w", err)
	}
	record.ID = id
	return id, nil
}

func (s *shipmentService) GetRecord(ctx context.Context, id string) (*port.StoredRecord, error) {
	return s.store.Get(ctx, id)
}

func (s *shipmentService) ListRecords(ctx context.Context) ([]port.StoredRecord, error) {
	return s.store.List(ctx)
}

// UpdateRecord replaces a stored record with a user-edited version. The
// edited identifier fields win as given; the record keeps its identity and
// creation time.
func (s *shipmentService) UpdateRecord(ctx context.Context, id string, edited *domain.ShipmentRecord) (*port.StoredRecord, error) {
	stored, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	edited.ID = id
	edited.CreatedAt = stored.Record.CreatedAt
	if edited.Provenance == nil {
		edited.Provenance = stored.Record.Provenance
	}
	stored.Record = *edited

	if _, err := s.store.Save(ctx, stored); err != nil {
		return nil, err
	}
	return stored, nil
}

// Reaggregate recomputes the summed and averaged fields of a user-edited
// record from the original field sets. Identifier fields stay as edited.
func (s *shipmentService) Reaggregate(record *domain.ShipmentRecord, sets []domain.FieldSet) {
	reconcile.ReaggregateNumeric(record, sets)
}

func (s *shipmentService) DeleteRecord(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *shipmentService) GetRawDocument(ctx context.Context, key string) ([]byte, error) {
	return s.storage.Download(ctx, key)
}
