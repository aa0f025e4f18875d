package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadSheetXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"name", "calories"},
		{"Apple", "52"},
	})

	rows, err := ReadSheet(data, "foods.xlsx")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"name", "calories"}, rows[0])
	assert.Equal(t, []string{"Apple", "52"}, rows[1])
}

func TestReadSheetXLSXByMagic(t *testing.T) {
	// No useful extension, but the zip signature gives the format away.
	data := buildWorkbook(t, [][]string{{"name", "calories"}})

	rows, err := ReadSheet(data, "upload")
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestReadSheetCSV(t *testing.T) {
	data := []byte("name,calories\nApple, 52\nBanana,89\n")

	rows, err := ReadSheet(data, "foods.csv")
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Apple", "52"}, rows[1])
}

func TestReadSheetRaggedCSV(t *testing.T) {
	data := []byte("name,calories,protein\nApple,52\nChicken,165,31\n")

	rows, err := ReadSheet(data, "foods.csv")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Len(t, rows[1], 2)
}

func TestReadSheetEmpty(t *testing.T) {
	_, err := ReadSheet(nil, "foods.csv")
	assert.Error(t, err)
}

func TestReadSheetCorruptWorkbook(t *testing.T) {
	_, err := ReadSheet([]byte("PK\x03\x04not really a workbook"), "foods.xlsx")
	assert.Error(t, err)
}

func TestSplitBatches(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	batches := splitBatches(items, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{1, 2}, batches[0])
	assert.Equal(t, []int{5}, batches[2])

	assert.Empty(t, splitBatches([]int{}, 2))
	assert.Nil(t, splitBatches(items, 0))
	assert.Len(t, splitBatches(items, 10), 1)
}
