package repositories

import (
	"context"
	"fmt"

	"github.com/yigit/rosterhub/internal/app/models"
	"github.com/yigit/rosterhub/internal/pkg/docstore"
)

// Repositories holds all the repository instances
type Repositories struct {
	StudentRepository         *StudentRepository
	AcademicHistoryRepository *AcademicHistoryRepository
}

// NewRepositories initializes all repositories
func NewRepositories(store docstore.Store) *Repositories {
	return &Repositories{
		StudentRepository:         NewStudentRepository(store),
		AcademicHistoryRepository: NewAcademicHistoryRepository(store),
	}
}

// EnsureIndexes creates the unique indexes backing the one-profile-per-roll-number,
// one-profile-per-username and one-history-per-roll-number rules.
func EnsureIndexes(ctx context.Context, store docstore.Store) error {
	indexes := []struct{ collection, field string }{
		{models.CollectionStudents, "rollNumber"},
		{models.CollectionStudents, "username"},
		{models.CollectionAcademicHistories, "rollNumber"},
	}
	for _, idx := range indexes {
		if err := store.EnsureUniqueIndex(ctx, idx.collection, idx.field); err != nil {
			return fmt.Errorf("failed to ensure unique index on %s.%s: %w", idx.collection, idx.field, err)
		}
	}
	return nil
}
