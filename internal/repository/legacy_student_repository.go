package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// LegacyStudentRepository reads the legacy identity mirror. The mirror is
// read-only and keeps the pre-migration row shape.
type LegacyStudentRepository struct {
	db *sqlx.DB
}

// NewLegacyStudentRepository constructs a LegacyStudentRepository.
func NewLegacyStudentRepository(db *sqlx.DB) *LegacyStudentRepository {
	return &LegacyStudentRepository{db: db}
}

const legacyStudentColumns = "id, index_number, full_name, email, programme, level, entry_year, schedule"

// FindByID fetches a legacy record by canonical id.
func (r *LegacyStudentRepository) FindByID(ctx context.Context, id string) (*models.StudentIdentity, error) {
	query := fmt.Sprintf("SELECT %s FROM legacy_students WHERE id = $1", legacyStudentColumns)
	var row models.LegacyStudentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	identity := row.Normalize()
	return &identity, nil
}

// FindByIndexNumber fetches a legacy record by its index number, the mirror's
// alias for the registration number.
func (r *LegacyStudentRepository) FindByIndexNumber(ctx context.Context, indexNumber string) (*models.StudentIdentity, error) {
	query := fmt.Sprintf("SELECT %s FROM legacy_students WHERE UPPER(index_number) = $1", legacyStudentColumns)
	var row models.LegacyStudentRow
	if err := r.db.GetContext(ctx, &row, query, strings.ToUpper(indexNumber)); err != nil {
		return nil, err
	}
	identity := row.Normalize()
	return &identity, nil
}

// Search returns legacy records matching the term on name, index number or
// email.
func (r *LegacyStudentRepository) Search(ctx context.Context, term string, limit int) ([]models.StudentIdentity, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT %s FROM legacy_students
        WHERE LOWER(full_name) LIKE $1 OR LOWER(index_number) LIKE $1 OR LOWER(email) LIKE $1
        ORDER BY full_name LIMIT %d`, legacyStudentColumns, limit)
	pattern := "%" + strings.ToLower(term) + "%"
	var rows []models.LegacyStudentRow
	if err := r.db.SelectContext(ctx, &rows, query, pattern); err != nil {
		return nil, fmt.Errorf("search legacy students: %w", err)
	}
	identities := make([]models.StudentIdentity, 0, len(rows))
	for _, row := range rows {
		identities = append(identities, row.Normalize())
	}
	return identities, nil
}
