package repositories

import (
	"context"
	"fmt"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/docstore"
)

// AcademicHistoryRepository handles grade history storage. There is at most
// one history per roll number.
type AcademicHistoryRepository struct {
	store docstore.Store
}

// NewAcademicHistoryRepository creates a new AcademicHistoryRepository
func NewAcademicHistoryRepository(store docstore.Store) *AcademicHistoryRepository {
	return &AcademicHistoryRepository{store: store}
}

// Upsert replaces the history of history.RollNumber or creates it. createdAt
// is only written on creation.
func (r *AcademicHistoryRepository) Upsert(ctx context.Context, history *models.AcademicHistory) (string, bool, error) {
	doc, err := docstore.Encode(history)
	if err != nil {
		return "", false, fmt.Errorf("failed to encode academic history: %w", err)
	}
	delete(doc, "createdAt")

	filter := docstore.Where(docstore.Eq("rollNumber", history.RollNumber))
	id, created, err := r.store.Upsert(ctx, models.CollectionAcademicHistories, filter, doc)
	if err != nil {
		return "", false, translateStoreError(err, "upsert", models.CollectionAcademicHistories, history.RollNumber, apperrors.ErrAcademicHistoryNotFound)
	}

	if created {
		stamp := docstore.Document{"createdAt": docstore.FormatTime(history.UpdatedAt)}
		if err := r.store.UpdateFields(ctx, models.CollectionAcademicHistories, id, stamp); err != nil {
			return "", false, translateStoreError(err, "update", models.CollectionAcademicHistories, id, apperrors.ErrAcademicHistoryNotFound)
		}
	}
	return id, created, nil
}

// GetByRollNumber retrieves the history of one student
func (r *AcademicHistoryRepository) GetByRollNumber(ctx context.Context, rollNumber string) (*models.AcademicHistory, error) {
	doc, err := r.store.FindOne(ctx, models.CollectionAcademicHistories, docstore.Where(docstore.Eq("rollNumber", rollNumber)))
	if err != nil {
		return nil, translateStoreError(err, "findOne", models.CollectionAcademicHistories, rollNumber, apperrors.ErrAcademicHistoryNotFound)
	}

	history := &models.AcademicHistory{}
	if err := docstore.Decode(doc, history); err != nil {
		return nil, fmt.Errorf("failed to decode academic history %s: %w", rollNumber, err)
	}
	return history, nil
}

// FindByRollNumbers loads the histories of a set of students with one query.
// An empty set does no I/O.
func (r *AcademicHistoryRepository) FindByRollNumbers(ctx context.Context, rollNumbers []string) ([]models.AcademicHistory, error) {
	if len(rollNumbers) == 0 {
		return []models.AcademicHistory{}, nil
	}

	docs, err := r.store.FindMany(ctx, models.CollectionAcademicHistories,
		docstore.Where(docstore.In("rollNumber", rollNumbers)),
		docstore.FindOptions{})
	if err != nil {
		return nil, translateStoreError(err, "find", models.CollectionAcademicHistories, "", apperrors.ErrAcademicHistoryNotFound)
	}

	histories, err := docstore.DecodeAll[models.AcademicHistory](docs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode academic histories: %w", err)
	}
	return histories, nil
}

// DeleteByRollNumber removes the history of a student, if any.
func (r *AcademicHistoryRepository) DeleteByRollNumber(ctx context.Context, rollNumber string) (int64, error) {
	n, err := r.store.DeleteMany(ctx, models.CollectionAcademicHistories, docstore.Where(docstore.Eq("rollNumber", rollNumber)))
	if err != nil {
		return 0, translateStoreError(err, "deleteMany", models.CollectionAcademicHistories, rollNumber, apperrors.ErrAcademicHistoryNotFound)
	}
	return n, nil
}
