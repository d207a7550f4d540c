package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/blogem/entrylog/models"
	"github.com/blogem/entrylog/repositories"
	"github.com/blogem/entrylog/repositories/mocks"
)

// EntryServiceTestSuite is a test suite for the entry service
type EntryServiceTestSuite struct {
	suite.Suite
	ctx           context.Context
	now           time.Time
	service       EntryService
	mockEntryRepo *mocks.MockEntryRepository
}

// SetupTest sets up the test suite before each test
func (suite *EntryServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.now = time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	suite.mockEntryRepo = mocks.NewMockEntryRepository(suite.T())

	suite.service = &entryService{
		entryRepo: suite.mockEntryRepo,
		now:       func() time.Time { return suite.now },
	}
}

// TestCreateEntry_Success tests that a valid form is stored with the creation instant as date
func (suite *EntryServiceTestSuite) TestCreateEntry_Success() {
	form := &models.EntryForm{
		Name:        "Courier",
		ImageURL:    "https://images.example.com/a.jpg",
		TypeOfEnter: models.EntryTypeDelivery,
	}

	suite.mockEntryRepo.EXPECT().
		Create(suite.ctx, mock.AnythingOfType("*models.Entry")).
		Return(nil)

	// Act
	entry, err := suite.service.CreateEntry(suite.ctx, form)

	// Assert
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), models.IsValidEntryID(entry.ID))
	assert.Equal(suite.T(), suite.now.UnixMilli(), entry.Date)
	assert.Equal(suite.T(), "Courier", entry.Name)
	assert.Equal(suite.T(), form.ImageURL, entry.ImageURL)
	assert.Equal(suite.T(), []string{}, entry.Tags)
}

// TestCreateEntry_InvalidType tests that an unknown entry type never reaches the repository
func (suite *EntryServiceTestSuite) TestCreateEntry_InvalidType() {
	form := &models.EntryForm{Name: "Intruder", TypeOfEnter: "visitor"}

	// Act
	entry, err := suite.service.CreateEntry(suite.ctx, form)

	// Assert
	assert.Nil(suite.T(), entry)
	assert.ErrorIs(suite.T(), err, models.ErrInvalidEntry)
	suite.mockEntryRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

// TestCreateEntry_RepositoryError tests error propagation from the store
func (suite *EntryServiceTestSuite) TestCreateEntry_RepositoryError() {
	storeErr := errors.New("connection refused")
	suite.mockEntryRepo.EXPECT().
		Create(suite.ctx, mock.Anything).
		Return(storeErr)

	// Act
	_, err := suite.service.CreateEntry(suite.ctx, &models.EntryForm{TypeOfEnter: models.EntryTypeGuest})

	// Assert
	assert.ErrorIs(suite.T(), err, storeErr)
	assert.Contains(suite.T(), err.Error(), "failed to create entry")
}

// TestListEntries_Pagination tests metadata and window arithmetic for a middle page
func (suite *EntryServiceTestSuite) TestListEntries_Pagination() {
	items := []models.Entry{
		{ID: models.NewEntryID(), Date: 300, TypeOfEnter: models.EntryTypeGuest},
		{ID: models.NewEntryID(), Date: 200, TypeOfEnter: models.EntryTypeResident},
	}
	suite.mockEntryRepo.EXPECT().Count(suite.ctx).Return(int64(7), nil)
	suite.mockEntryRepo.EXPECT().List(suite.ctx, int64(2), 2).Return(items, nil)

	// Act
	page, err := suite.service.ListEntries(suite.ctx, models.PageRequest{Page: 2, Limit: 2})

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), items, page.Items)
	assert.Equal(suite.T(), models.PaginationMetadata{
		TotalItems:      7,
		TotalPages:      4,
		CurrentPage:     2,
		HasNextPage:     true,
		HasPreviousPage: true,
	}, page.Metadata)
}

// TestListEntries_EmptyStore tests that an empty log yields an empty, non-nil item list
func (suite *EntryServiceTestSuite) TestListEntries_EmptyStore() {
	suite.mockEntryRepo.EXPECT().Count(suite.ctx).Return(int64(0), nil)
	suite.mockEntryRepo.EXPECT().List(suite.ctx, int64(0), 20).Return(nil, nil)

	// Act
	page, err := suite.service.ListEntries(suite.ctx, models.ParsePageRequest("", ""))

	// Assert
	assert.NoError(suite.T(), err)
	assert.NotNil(suite.T(), page.Items)
	assert.Empty(suite.T(), page.Items)
	assert.False(suite.T(), page.Metadata.HasNextPage)
	assert.False(suite.T(), page.Metadata.HasPreviousPage)
}

// TestListEntries_CountError tests that a failing count aborts the listing
func (suite *EntryServiceTestSuite) TestListEntries_CountError() {
	storeErr := errors.New("server selection timeout")
	suite.mockEntryRepo.EXPECT().Count(suite.ctx).Return(int64(0), storeErr)

	// Act
	page, err := suite.service.ListEntries(suite.ctx, models.PageRequest{Page: 1, Limit: 20})

	// Assert
	assert.Nil(suite.T(), page)
	assert.ErrorIs(suite.T(), err, storeErr)
}

// TestUpdateEntry_NotFound tests that the not-found sentinel survives wrapping
func (suite *EntryServiceTestSuite) TestUpdateEntry_NotFound() {
	id := models.NewEntryID()
	patch := map[string]json.RawMessage{"name": json.RawMessage(`"x"`)}
	suite.mockEntryRepo.EXPECT().Update(suite.ctx, id, patch).Return(nil, repositories.ErrNotFound)

	// Act
	entry, err := suite.service.UpdateEntry(suite.ctx, id, patch)

	// Assert
	assert.Nil(suite.T(), entry)
	assert.ErrorIs(suite.T(), err, repositories.ErrNotFound)
}

// TestUpdateEntry_Success tests that the updated record is returned
func (suite *EntryServiceTestSuite) TestUpdateEntry_Success() {
	id := models.NewEntryID()
	patch := map[string]json.RawMessage{"typeOfEnter": json.RawMessage(`"burglar"`)}
	updated := &models.Entry{ID: id, TypeOfEnter: models.EntryTypeBurglar}
	suite.mockEntryRepo.EXPECT().Update(suite.ctx, id, patch).Return(updated, nil)

	// Act
	entry, err := suite.service.UpdateEntry(suite.ctx, id, patch)

	// Assert
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), updated, entry)
}

// TestDeleteEntry tests success and not-found propagation
func (suite *EntryServiceTestSuite) TestDeleteEntry() {
	existing := models.NewEntryID()
	missing := models.NewEntryID()
	suite.mockEntryRepo.EXPECT().Delete(suite.ctx, existing).Return(nil)
	suite.mockEntryRepo.EXPECT().Delete(suite.ctx, missing).Return(repositories.ErrNotFound)

	assert.NoError(suite.T(), suite.service.DeleteEntry(suite.ctx, existing))
	assert.ErrorIs(suite.T(), suite.service.DeleteEntry(suite.ctx, missing), repositories.ErrNotFound)
}

// TestEntryServiceTestSuite runs the entry service test suite
func TestEntryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EntryServiceTestSuite))
}
