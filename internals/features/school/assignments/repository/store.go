// file: internals/features/school/assignments/repository/store.go
package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Store bundles the repositories over one *gorm.DB handle.
// Inside Transaction every repository shares the transaction.
type Store struct {
	db *gorm.DB

	Assignments *AssignmentRepository
	Submissions *SubmissionRepository
	Backlog     *CleanupBacklogRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Assignments: &AssignmentRepository{db: db},
		Submissions: &SubmissionRepository{db: db},
		Backlog:     &CleanupBacklogRepository{db: db},
	}
}

// Transaction runs fn as one unit of work: all writes commit together or none do.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) DB() *gorm.DB { return s.db }

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}
