package service

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
)

// registrationNumberPattern matches institutional registration numbers such
// as UCAES20240001: a faculty prefix followed by the year and a serial.
var registrationNumberPattern = regexp.MustCompile(`^[A-Za-z]{2,6}\d{6,10}$`)

type primaryIdentityStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentIdentity, error)
	FindByRegistrationNumber(ctx context.Context, regNumber string) (*models.StudentIdentity, error)
	Search(ctx context.Context, term string, limit int) ([]models.StudentIdentity, error)
}

type legacyIdentityStore interface {
	FindByID(ctx context.Context, id string) (*models.StudentIdentity, error)
	FindByIndexNumber(ctx context.Context, indexNumber string) (*models.StudentIdentity, error)
	Search(ctx context.Context, term string, limit int) ([]models.StudentIdentity, error)
}

// resolveStrategy is one way of matching a raw reference to a store record.
// Strategies run in priority order; the first match wins, so the primary
// store stays authoritative when both stores hold a record.
type resolveStrategy struct {
	name  string
	match func(ctx context.Context, reference string) (*models.StudentIdentity, error)
}

// IdentityService maps loosely specified student references onto canonical
// identities and powers the student search endpoint.
type IdentityService struct {
	strategies []resolveStrategy
	primary    primaryIdentityStore
	legacy     legacyIdentityStore
	logger     *zap.Logger
}

// SearchResultCap bounds the number of identities a search returns.
const SearchResultCap = 20

// NewIdentityService constructs an IdentityService.
func NewIdentityService(primary primaryIdentityStore, legacy legacyIdentityStore, logger *zap.Logger) *IdentityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &IdentityService{primary: primary, legacy: legacy, logger: logger}
	s.strategies = []resolveStrategy{
		{name: "primary-id", match: func(ctx context.Context, ref string) (*models.StudentIdentity, error) {
			return primary.FindByID(ctx, ref)
		}},
		{name: "legacy-id", match: func(ctx context.Context, ref string) (*models.StudentIdentity, error) {
			return legacy.FindByID(ctx, ref)
		}},
		{name: "primary-regnumber", match: func(ctx context.Context, ref string) (*models.StudentIdentity, error) {
			if !registrationNumberPattern.MatchString(ref) {
				return nil, sql.ErrNoRows
			}
			return primary.FindByRegistrationNumber(ctx, ref)
		}},
		{name: "legacy-regnumber", match: func(ctx context.Context, ref string) (*models.StudentIdentity, error) {
			if !registrationNumberPattern.MatchString(ref) {
				return nil, sql.ErrNoRows
			}
			return legacy.FindByIndexNumber(ctx, ref)
		}},
	}
	return s
}

// Resolve maps a reference (canonical id or registration number) onto the
// canonical identity. It returns NOT_FOUND only after every strategy has been
// exhausted; a store failure is logged and the remaining strategies still run.
func (s *IdentityService) Resolve(ctx context.Context, reference string) (*models.StudentIdentity, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student reference required")
	}
	for _, strategy := range s.strategies {
		identity, err := strategy.match(ctx, reference)
		if err != nil {
			if err != sql.ErrNoRows {
				s.logger.Warn("identity strategy failed",
					zap.String("strategy", strategy.name),
					zap.String("reference", reference),
					zap.Error(err))
			}
			continue
		}
		return identity, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// Search returns identities matching the term on name parts, registration
// number or email. Terms shorter than two characters return an empty result
// without touching any store. Results are deduplicated by registration number
// then email and capped. A single store being down degrades the result set;
// the search fails only when every store errors.
func (s *IdentityService) Search(ctx context.Context, term string) ([]models.StudentIdentity, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return []models.StudentIdentity{}, nil
	}

	matches, primaryErr := s.primary.Search(ctx, term, SearchResultCap)
	if primaryErr != nil {
		s.logger.Warn("primary search failed", zap.String("term", term), zap.Error(primaryErr))
		matches = nil
	}

	legacyMatches, legacyErr := s.legacy.Search(ctx, term, SearchResultCap)
	if legacyErr != nil {
		s.logger.Warn("legacy search failed", zap.String("term", term), zap.Error(legacyErr))
	} else {
		matches = append(matches, legacyMatches...)
	}

	if primaryErr != nil && legacyErr != nil {
		return nil, appErrors.Wrap(primaryErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search students")
	}

	seen := make(map[string]bool, len(matches))
	results := make([]models.StudentIdentity, 0, len(matches))
	for _, identity := range matches {
		key := strings.ToUpper(identity.RegistrationNumber)
		if key == "" {
			key = strings.ToLower(identity.Email)
		}
		if key == "" {
			key = identity.ID
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, identity)
		if len(results) >= SearchResultCap {
			break
		}
	}
	return results, nil
}
