package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/pkg/apperrors"
	"github.com/yigit/rosterhub/internal/pkg/docstore"
)

// rosterOrder is the default, store independent roster order.
var rosterOrder = []docstore.SortField{
	{Field: "rollNumber"},
	{Field: docstore.IDField},
}

// StudentRepository handles student profile storage
type StudentRepository struct {
	store docstore.Store
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(store docstore.Store) *StudentRepository {
	return &StudentRepository{store: store}
}

// ValidateID checks the id syntax without touching the store.
func (r *StudentRepository) ValidateID(id string) error {
	if err := r.store.ValidateID(id); err != nil {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidID, id)
	}
	return nil
}

// Create inserts a new profile and returns its id. A unique index violation
// is reported as ErrRollNumberExists or ErrUsernameExists.
func (r *StudentRepository) Create(ctx context.Context, student *models.StudentProfile) (string, error) {
	doc, err := docstore.Encode(student)
	if err != nil {
		return "", fmt.Errorf("failed to encode student: %w", err)
	}

	id, err := r.store.Insert(ctx, models.CollectionStudents, doc)
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return "", r.whichDuplicate(ctx, student.RollNumber)
	}
	if err != nil {
		return "", translateStoreError(err, "insert", models.CollectionStudents, student.RollNumber, apperrors.ErrStudentNotFound)
	}
	return id, nil
}

// whichDuplicate tells a roll number clash from a username clash after the
// store rejected a write.
func (r *StudentRepository) whichDuplicate(ctx context.Context, rollNumber string) error {
	exists, err := r.ExistsByRollNumber(ctx, rollNumber)
	if err == nil && exists {
		return apperrors.ErrRollNumberExists
	}
	return apperrors.ErrUsernameExists
}

// GetByID retrieves a profile by its store id
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	if err := r.ValidateID(id); err != nil {
		return nil, err
	}
	return r.findOne(ctx, docstore.ByID(id), id)
}

// GetByRollNumber retrieves a profile by roll number
func (r *StudentRepository) GetByRollNumber(ctx context.Context, rollNumber string) (*models.StudentProfile, error) {
	return r.findOne(ctx, docstore.Where(docstore.Eq("rollNumber", rollNumber)), rollNumber)
}

// GetByUsername retrieves a profile by login name
func (r *StudentRepository) GetByUsername(ctx context.Context, username string) (*models.StudentProfile, error) {
	return r.findOne(ctx, docstore.Where(docstore.Eq("username", username)), username)
}

func (r *StudentRepository) findOne(ctx context.Context, filter docstore.Filter, key string) (*models.StudentProfile, error) {
	doc, err := r.store.FindOne(ctx, models.CollectionStudents, filter)
	if err != nil {
		return nil, translateStoreError(err, "findOne", models.CollectionStudents, key, apperrors.ErrStudentNotFound)
	}

	student := &models.StudentProfile{}
	if err := docstore.Decode(doc, student); err != nil {
		return nil, fmt.Errorf("failed to decode student %s: %w", key, err)
	}
	return student, nil
}

// ExistsByRollNumber reports whether a profile with the roll number exists.
func (r *StudentRepository) ExistsByRollNumber(ctx context.Context, rollNumber string) (bool, error) {
	return r.exists(ctx, "rollNumber", rollNumber)
}

// ExistsByUsername reports whether a profile with the username exists.
func (r *StudentRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username", username)
}

func (r *StudentRepository) exists(ctx context.Context, field, value string) (bool, error) {
	n, err := r.store.Count(ctx, models.CollectionStudents, docstore.Where(docstore.Eq(field, value)))
	if err != nil {
		return false, translateStoreError(err, "count", models.CollectionStudents, value, apperrors.ErrStudentNotFound)
	}
	return n > 0, nil
}

// UpdateFields sets only the given fields. The caller has validated them.
func (r *StudentRepository) UpdateFields(ctx context.Context, id string, fields docstore.Document) error {
	if err := r.ValidateID(id); err != nil {
		return err
	}

	err := r.store.UpdateFields(ctx, models.CollectionStudents, id, fields)
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return apperrors.ErrUsernameExists
	}
	return translateStoreError(err, "update", models.CollectionStudents, id, apperrors.ErrStudentNotFound)
}

// Delete removes a profile by id
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	if err := r.ValidateID(id); err != nil {
		return err
	}
	err := r.store.DeleteByID(ctx, models.CollectionStudents, id)
	return translateStoreError(err, "delete", models.CollectionStudents, id, apperrors.ErrStudentNotFound)
}

// List returns one page of profiles in roster order plus the total count.
func (r *StudentRepository) List(ctx context.Context, skip, limit int64) ([]models.StudentProfile, int64, error) {
	total, err := r.store.Count(ctx, models.CollectionStudents, docstore.All())
	if err != nil {
		return nil, 0, translateStoreError(err, "count", models.CollectionStudents, "", apperrors.ErrStudentNotFound)
	}
	if total == 0 || skip >= total {
		return []models.StudentProfile{}, total, nil
	}

	students, err := r.find(ctx, docstore.All(), docstore.FindOptions{Sort: rosterOrder, Skip: skip, Limit: limit})
	if err != nil {
		return nil, 0, err
	}
	return students, total, nil
}

// ListBatch returns profiles in roster order without counting them. Used to
// walk the whole roster.
func (r *StudentRepository) ListBatch(ctx context.Context, skip, limit int64) ([]models.StudentProfile, error) {
	return r.find(ctx, docstore.All(), docstore.FindOptions{Sort: rosterOrder, Skip: skip, Limit: limit})
}

// Search returns profiles whose name contains namePattern (case-insensitive,
// literal), ordered by sortField then id, or by roster order when sortField
// is empty. At most limit profiles are returned; limit <= 0 means no limit.
func (r *StudentRepository) Search(ctx context.Context, namePattern, sortField string, limit int64) ([]models.StudentProfile, error) {
	filter := docstore.All()
	if namePattern != "" {
		filter = docstore.Where(docstore.ContainsFold("name", namePattern))
	}

	order := rosterOrder
	if sortField != "" {
		order = []docstore.SortField{{Field: sortField}, {Field: docstore.IDField}}
	}

	opts := docstore.FindOptions{Sort: order}
	if limit > 0 {
		opts.Limit = limit
	}
	return r.find(ctx, filter, opts)
}

func (r *StudentRepository) find(ctx context.Context, filter docstore.Filter, opts docstore.FindOptions) ([]models.StudentProfile, error) {
	docs, err := r.store.FindMany(ctx, models.CollectionStudents, filter, opts)
	if err != nil {
		return nil, translateStoreError(err, "find", models.CollectionStudents, "", apperrors.ErrStudentNotFound)
	}
	students, err := docstore.DecodeAll[models.StudentProfile](docs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}
	return students, nil
}
