package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), common.DatabaseConfig{
		DSN:      ":memory:",
		MaxConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleModule(docID uuid.UUID) *entity.DataModule {
	return &entity.DataModule{
		DMC:              "DMC-AQLA-00-000-00-00-00-00-00-030-A-A-00-00-00",
		Title:            "Engine Start Procedure",
		DMType:           constants.Procedural,
		InfoVariant:      constants.VariantVerbatim,
		Content:          "Connect the external power unit.",
		SourceDocumentID: docID,
		ICNRefs:          []string{"ICN-AAAA1111"},
		DMRefs:           []string{"DMC-AQLA-00-000-00-00-00-00-00-020-A-A-00-00-00"},
		ValidationStatus: constants.ValidationBlue,
	}
}

func TestDataModuleRoundTrip(t *testing.T) {
	repo := NewDataModuleRepository(openTestDB(t), nil)
	docID := uuid.New()
	dm := sampleModule(docID)

	require.NoError(t, repo.Create(context.Background(), dm))

	got, err := repo.GetByDMC(context.Background(), dm.DMC)
	require.NoError(t, err)
	assert.Equal(t, dm.Title, got.Title)
	assert.Equal(t, constants.Procedural, got.DMType)
	assert.Equal(t, dm.ICNRefs, got.ICNRefs)
	assert.Equal(t, dm.DMRefs, got.DMRefs)
	assert.Equal(t, docID, got.SourceDocumentID)
	assert.Equal(t, constants.ValidationBlue, got.ValidationStatus)
}

func TestDataModuleDuplicateDMC(t *testing.T) {
	repo := NewDataModuleRepository(openTestDB(t), nil)
	dm := sampleModule(uuid.New())

	require.NoError(t, repo.Create(context.Background(), dm))
	err := repo.Create(context.Background(), sampleModule(uuid.New()))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicateIdentifier)
}

func TestDataModuleUpdate(t *testing.T) {
	repo := NewDataModuleRepository(openTestDB(t), nil)
	dm := sampleModule(uuid.New())
	require.NoError(t, repo.Create(context.Background(), dm))

	dm.Content = "Connect the external power unit before you start."
	dm.ICNRefs = []string{"ICN-BBBB2222"}
	dm.STEScore = 0.91
	require.NoError(t, repo.Update(context.Background(), dm))

	got, err := repo.GetByDMC(context.Background(), dm.DMC)
	require.NoError(t, err)
	assert.Equal(t, dm.Content, got.Content)
	assert.Equal(t, []string{"ICN-BBBB2222"}, got.ICNRefs)
	assert.InDelta(t, 0.91, got.STEScore, 1e-9)

	missing := sampleModule(uuid.New())
	missing.DMC = "DMC-NOPE"
	assert.ErrorIs(t, repo.Update(context.Background(), missing), common.ErrNotFound)
}

func TestDataModuleGetMissing(t *testing.T) {
	repo := NewDataModuleRepository(openTestDB(t), nil)

	_, err := repo.GetByDMC(context.Background(), "DMC-NOPE")
	assert.ErrorIs(t, err, common.ErrNotFound)

	ok, err := repo.Exists(context.Background(), "DMC-NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDataModuleSetValidation(t *testing.T) {
	repo := NewDataModuleRepository(openTestDB(t), nil)
	dm := sampleModule(uuid.New())
	require.NoError(t, repo.Create(context.Background(), dm))

	findings := []string{"Title is required"}
	require.NoError(t, repo.SetValidation(context.Background(), dm.DMC, constants.ValidationRed, findings))

	got, err := repo.GetByDMC(context.Background(), dm.DMC)
	require.NoError(t, err)
	assert.Equal(t, constants.ValidationRed, got.ValidationStatus)
	assert.Equal(t, findings, got.ValidationErrors)

	err = repo.SetValidation(context.Background(), "DMC-NOPE", constants.ValidationGreen, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDataModuleListBySourceDocument(t *testing.T) {
	repo := NewDataModuleRepository(openTestDB(t), nil)
	docID := uuid.New()

	first := sampleModule(docID)
	second := sampleModule(docID)
	second.DMC = "DMC-AQLA-00-000-00-00-00-00-00-030-A-A-00-00-01"
	second.InfoVariant = constants.VariantSimplified
	other := sampleModule(uuid.New())
	other.DMC = "DMC-AQLA-00-999-00-00-00-00-00-030-A-A-00-00-00"

	require.NoError(t, repo.Create(context.Background(), first))
	require.NoError(t, repo.Create(context.Background(), second))
	require.NoError(t, repo.Create(context.Background(), other))

	modules, err := repo.ListBySourceDocument(context.Background(), docID)
	require.NoError(t, err)
	assert.Len(t, modules, 2)
}

func TestICNFindByHash(t *testing.T) {
	repo := NewICNRepository(openTestDB(t), nil)
	icn := &entity.ICN{
		ICNID:      "ICN-AAAA1111",
		Filename:   "ICN-AAAA1111.png",
		SHA256Hash: "deadbeef",
		MimeType:   "image/png",
		Width:      40,
		Height:     30,
	}
	require.NoError(t, repo.Create(context.Background(), icn))

	got, err := repo.FindByHash(context.Background(), "deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "ICN-AAAA1111", got.ICNID)
	assert.Equal(t, "UNCLASSIFIED", got.SecurityClass)

	_, err = repo.FindByHash(context.Background(), "cafebabe")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// identical bytes under a fresh identifier still collide on the hash
	dup := &entity.ICN{ICNID: "ICN-BBBB2222", Filename: "x.png", SHA256Hash: "deadbeef", MimeType: "image/png"}
	err = repo.Create(context.Background(), dup)
	assert.ErrorIs(t, err, common.ErrDuplicateIdentifier)
}

func TestDocumentStatusAndLogs(t *testing.T) {
	repo := NewDocumentRepository(openTestDB(t), nil)
	doc := &entity.Document{
		ID:          uuid.New(),
		Filename:    "manual.pdf",
		MimeType:    "application/pdf",
		SHA256Hash:  "abc",
		StoragePath: "/tmp/manual.pdf",
	}
	require.NoError(t, repo.Create(context.Background(), doc))

	got, err := repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ProcessingPending, got.ProcessingStatus)

	require.NoError(t, repo.SetStatus(context.Background(), doc.ID, constants.ProcessingRunning))
	require.NoError(t, repo.AppendLog(context.Background(), doc.ID, "processing started"))
	require.NoError(t, repo.AppendLog(context.Background(), doc.ID, "extracted 120 chars"))

	got, err = repo.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ProcessingRunning, got.ProcessingStatus)
	require.Len(t, got.ProcessingLogs, 2)
	assert.Equal(t, "processing started", got.ProcessingLogs[0].Message)

	assert.ErrorIs(t, repo.SetStatus(context.Background(), uuid.New(), constants.ProcessingFailed), common.ErrNotFound)
}

func TestReferenceChecker(t *testing.T) {
	db := openTestDB(t)
	icns := NewICNRepository(db, nil)
	modules := NewDataModuleRepository(db, nil)
	checker := NewReferenceChecker(icns, modules)

	require.NoError(t, icns.Create(context.Background(), &entity.ICN{
		ICNID: "ICN-KNOWN", Filename: "a.png", SHA256Hash: "h1", MimeType: "image/png",
	}))
	dm := sampleModule(uuid.New())
	require.NoError(t, modules.Create(context.Background(), dm))

	ok, err := checker.ICNExists(context.Background(), "ICN-KNOWN")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.ICNExists(context.Background(), "ICN-MISSING")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = checker.DataModuleExists(context.Background(), dm.DMC)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.DataModuleExists(context.Background(), "DMC-NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
}
