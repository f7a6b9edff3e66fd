package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Teymccall/UCAES2025-fullstack-system-sub006/internal/models"
	appErrors "github.com/Teymccall/UCAES2025-fullstack-system-sub006/pkg/errors"
)

type fakePrimaryStore struct {
	byID      map[string]models.StudentIdentity
	byRegNo   map[string]models.StudentIdentity
	matches   []models.StudentIdentity
	searchErr error
	searches  int
}

func (f *fakePrimaryStore) FindByID(ctx context.Context, id string) (*models.StudentIdentity, error) {
	if identity, ok := f.byID[id]; ok {
		return &identity, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakePrimaryStore) FindByRegistrationNumber(ctx context.Context, regNumber string) (*models.StudentIdentity, error) {
	if identity, ok := f.byRegNo[regNumber]; ok {
		return &identity, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakePrimaryStore) Search(ctx context.Context, term string, limit int) ([]models.StudentIdentity, error) {
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

type fakeLegacyStore struct {
	byID      map[string]models.StudentIdentity
	byIndex   map[string]models.StudentIdentity
	matches   []models.StudentIdentity
	findErr   error
	searchErr error
	searches  int
}

func (f *fakeLegacyStore) FindByID(ctx context.Context, id string) (*models.StudentIdentity, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if identity, ok := f.byID[id]; ok {
		return &identity, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLegacyStore) FindByIndexNumber(ctx context.Context, indexNumber string) (*models.StudentIdentity, error) {
	if identity, ok := f.byIndex[indexNumber]; ok {
		return &identity, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLegacyStore) Search(ctx context.Context, term string, limit int) ([]models.StudentIdentity, error) {
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.matches, nil
}

func TestResolvePrefersPrimaryStore(t *testing.T) {
	primary := &fakePrimaryStore{byID: map[string]models.StudentIdentity{
		"stu-1": {ID: "stu-1", DisplayName: "Primary Copy"},
	}}
	legacy := &fakeLegacyStore{byID: map[string]models.StudentIdentity{
		"stu-1": {ID: "stu-1", DisplayName: "Legacy Copy"},
	}}
	svc := NewIdentityService(primary, legacy, nil)

	identity, err := svc.Resolve(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, "Primary Copy", identity.DisplayName)
}

func TestResolveFallsThroughToLegacyRegistrationNumber(t *testing.T) {
	primary := &fakePrimaryStore{}
	legacy := &fakeLegacyStore{byIndex: map[string]models.StudentIdentity{
		"UCAES20240001": {ID: "old-7", RegistrationNumber: "UCAES20240001"},
	}}
	svc := NewIdentityService(primary, legacy, nil)

	identity, err := svc.Resolve(context.Background(), "UCAES20240001")
	require.NoError(t, err)
	assert.Equal(t, "old-7", identity.ID)
}

func TestResolveContinuesPastFailingStore(t *testing.T) {
	primary := &fakePrimaryStore{byRegNo: map[string]models.StudentIdentity{
		"UCAES20240002": {ID: "stu-2", RegistrationNumber: "UCAES20240002"},
	}}
	legacy := &fakeLegacyStore{findErr: errors.New("connection refused")}
	svc := NewIdentityService(primary, legacy, nil)

	identity, err := svc.Resolve(context.Background(), "UCAES20240002")
	require.NoError(t, err, "legacy outage must not fail resolution")
	assert.Equal(t, "stu-2", identity.ID)
}

func TestResolveNotFoundAfterAllStrategies(t *testing.T) {
	svc := NewIdentityService(&fakePrimaryStore{}, &fakeLegacyStore{}, nil)

	_, err := svc.Resolve(context.Background(), "nope")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestResolveEmptyReferenceIsValidationError(t *testing.T) {
	svc := NewIdentityService(&fakePrimaryStore{}, &fakeLegacyStore{}, nil)

	_, err := svc.Resolve(context.Background(), "   ")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestSearchShortTermSkipsStores(t *testing.T) {
	primary := &fakePrimaryStore{}
	legacy := &fakeLegacyStore{}
	svc := NewIdentityService(primary, legacy, nil)

	results, err := svc.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, primary.searches)
	assert.Zero(t, legacy.searches)
}

func TestSearchDeduplicatesAcrossStores(t *testing.T) {
	primary := &fakePrimaryStore{matches: []models.StudentIdentity{
		{ID: "stu-1", RegistrationNumber: "UCAES20240001", DisplayName: "Ama Mensah"},
	}}
	legacy := &fakeLegacyStore{matches: []models.StudentIdentity{
		{ID: "old-1", RegistrationNumber: "ucaes20240001", DisplayName: "Ama Mensah (legacy)"},
		{ID: "old-2", Email: "kofi@ucaes.edu.gh", DisplayName: "Kofi Asare"},
	}}
	svc := NewIdentityService(primary, legacy, nil)

	results, err := svc.Search(context.Background(), "mensah")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "stu-1", results[0].ID, "primary match wins the duplicate")
	assert.Equal(t, "old-2", results[1].ID)
}

func TestSearchDegradesWhenLegacyFails(t *testing.T) {
	primary := &fakePrimaryStore{matches: []models.StudentIdentity{{ID: "stu-1", DisplayName: "Ama"}}}
	legacy := &fakeLegacyStore{searchErr: errors.New("mirror down")}
	svc := NewIdentityService(primary, legacy, nil)

	results, err := svc.Search(context.Background(), "ama")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchDegradesWhenPrimaryFails(t *testing.T) {
	primary := &fakePrimaryStore{searchErr: errors.New("primary store down")}
	legacy := &fakeLegacyStore{matches: []models.StudentIdentity{{ID: "old-1", DisplayName: "Ama"}}}
	svc := NewIdentityService(primary, legacy, nil)

	results, err := svc.Search(context.Background(), "ama")
	require.NoError(t, err, "primary outage must not fail search")
	require.Len(t, results, 1)
	assert.Equal(t, "old-1", results[0].ID)
}

func TestSearchFailsOnlyWhenEveryStoreFails(t *testing.T) {
	primary := &fakePrimaryStore{searchErr: errors.New("primary store down")}
	legacy := &fakeLegacyStore{searchErr: errors.New("mirror down")}
	svc := NewIdentityService(primary, legacy, nil)

	_, err := svc.Search(context.Background(), "ama")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
}

func TestSearchCapsResults(t *testing.T) {
	var matches []models.StudentIdentity
	for i := 0; i < SearchResultCap+10; i++ {
		matches = append(matches, models.StudentIdentity{ID: fmt.Sprintf("stu-%d", i)})
	}
	primary := &fakePrimaryStore{matches: matches}
	svc := NewIdentityService(primary, &fakeLegacyStore{}, nil)

	results, err := svc.Search(context.Background(), "stu")
	require.NoError(t, err)
	assert.Len(t, results, SearchResultCap)
}
