// Package firestore stores prediction history in a Cloud Firestore
// collection through the Firestore REST API.
package firestore

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
	firestoreapi "google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"
)

const listPageSize = 300

// Config locates the prediction collection.
type Config struct {
	ProjectID  string
	Database   string
	Collection string
}

// Store implements service.HistoryStore on a Firestore collection.
type Store struct {
	docs       *firestoreapi.ProjectsDatabasesDocumentsService
	parent     string
	collection string
}

// New creates a Store. Credentials and endpoint come from opts.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Store, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: firestore project id", common.ErrMissingConfig)
	}
	if cfg.Database == "" {
		cfg.Database = "(default)"
	}
	if cfg.Collection == "" {
		cfg.Collection = "predictions"
	}

	svc, err := firestoreapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore service: %w", err)
	}

	return &Store{
		docs:       svc.Projects.Databases.Documents,
		parent:     fmt.Sprintf("projects/%s/databases/%s/documents", cfg.ProjectID, cfg.Database),
		collection: cfg.Collection,
	}, nil
}

// Append writes record as a new document whose ID is the record ID.
func (s *Store) Append(ctx context.Context, record model.PredictionRecord) error {
	call := s.docs.CreateDocument(s.parent, s.collection, encodeRecord(record)).Context(ctx)
	if record.ID != "" {
		call = call.DocumentId(record.ID)
	}
	if _, err := call.Do(); err != nil {
		return fmt.Errorf("%w: failed to create document: %w", common.ErrPersistence, err)
	}

	slog.Debug("Stored prediction in firestore", "collection", s.collection, "id", record.ID)
	return nil
}

// FetchAll reads every document of the collection, following page tokens.
// Documents come back in the order Firestore lists them.
func (s *Store) FetchAll(ctx context.Context) ([]model.PredictionRecord, error) {
	var records []model.PredictionRecord

	err := s.docs.List(s.parent, s.collection).
		PageSize(listPageSize).
		Pages(ctx, func(resp *firestoreapi.ListDocumentsResponse) error {
			for _, doc := range resp.Documents {
				record, err := decodeRecord(doc)
				if err != nil {
					// Documents written by other clients may not match; skip them.
					slog.Warn("Skipping malformed prediction document", "name", doc.Name, "error", err)
					continue
				}
				records = append(records, record)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list documents: %w", common.ErrPersistence, err)
	}

	return records, nil
}

// documentID returns the last path segment of a document resource name.
func documentID(name string) string {
	if name == "" {
		return ""
	}
	return path.Base(name)
}
