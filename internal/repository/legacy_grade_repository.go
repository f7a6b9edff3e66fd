package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
)

// LegacyGradeRepository reads the legacy grade store. Rows there were keyed
// inconsistently, so lookups accept a set of candidate keys.
type LegacyGradeRepository struct {
	db *sqlx.DB
}

// NewLegacyGradeRepository constructs a LegacyGradeRepository.
func NewLegacyGradeRepository(db *sqlx.DB) *LegacyGradeRepository {
	return &LegacyGradeRepository{db: db}
}

// ListPublishedByKeys returns published legacy rows whose student_key matches
// any of the candidates (canonical id, registration number or email).
func (r *LegacyGradeRepository) ListPublishedByKeys(ctx context.Context, keys []string) ([]models.LegacyGradeRow, error) {
	candidates := make([]string, 0, len(keys))
	for _, key := range keys {
		key = strings.ToLower(strings.TrimSpace(key))
		if key != "" {
			candidates = append(candidates, key)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(candidates))
	args := make([]interface{}, len(candidates))
	for i, key := range candidates {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = key
	}
	query := fmt.Sprintf(`SELECT id, student_key, course_code, title, credit_hours, letter, year_label, term_label, published
        FROM legacy_grades WHERE published = true AND LOWER(student_key) IN (%s) ORDER BY id`, strings.Join(placeholders, ","))
	var rows []models.LegacyGradeRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list legacy grades: %w", err)
	}
	return rows, nil
}
