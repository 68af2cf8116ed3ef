package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/aquila-docs/aquila/constants"
	"github.com/aquila-docs/aquila/internal/common"
	"github.com/aquila-docs/aquila/internal/entity"
	"github.com/aquila-docs/aquila/internal/repository"
)

func TestExportModulesXLSX(t *testing.T) {
	db, err := repository.Open(context.Background(), common.DatabaseConfig{
		DSN:      ":memory:",
		MaxConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	modules := repository.NewDataModuleRepository(db, nil)
	docID := uuid.New()
	require.NoError(t, modules.Create(context.Background(), &entity.DataModule{
		DMC:         "DMC-AQLA-00-000-00-00-00-00-00-030-A-A-00-00-00",
		Title:       "Engine Start Procedure",
		DMType:      constants.Procedural,
		InfoVariant: constants.VariantVerbatim,
		Content:     "Connect the power unit.", SourceDocumentID: docID,
	}))
	require.NoError(t, modules.Create(context.Background(), &entity.DataModule{
		DMC:         "DMC-AQLA-00-000-00-00-00-00-00-030-A-A-00-00-01",
		Title:       "Engine Start Procedure",
		DMType:      constants.Procedural,
		InfoVariant: constants.VariantSimplified,
		Content:     "Connect the power unit.", SourceDocumentID: docID,
		STEScore: 0.92,
	}))

	data, err := NewService(modules, nil).ExportModulesXLSX(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Data Modules")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "DMC", rows[0][0])
	assert.Equal(t, "STE Score", rows[0][5])

	scores := map[string]string{}
	for _, row := range rows[1:] {
		variant := row[3]
		score := ""
		if len(row) > 5 {
			score = row[5]
		}
		scores[variant] = score
	}
	assert.Equal(t, "", scores["00"], "verbatim rows carry no score")
	assert.Equal(t, "0.92", scores["01"])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "abcdefgh", truncate("abcdefgh", 0))
}
