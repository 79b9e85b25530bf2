package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"lekha/internal/domain"
	"lekha/internal/export"
)

func lines() []domain.Segment {
	return []domain.Segment{
		{SegmentID: "p0000_l0000", PageRef: "001.png", PageIndex: 0, LineIndex: 0, Text: "Hello world", BaseText: "Helo world", Edited: true},
		{SegmentID: "p0000_l0001", PageRef: "001.png", PageIndex: 0, LineIndex: 1, Text: "second", BaseText: "second"},
		{SegmentID: "p0001_l0000", PageRef: "002.png", PageIndex: 1, LineIndex: 0, Text: "next page", BaseText: "nxt page", HasConflict: true},
	}
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, domain.ExportText, lines()))
	assert.Equal(t, "Hello world\nsecond\n\nnext page\n", buf.String())
}

func TestWrite_TextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, domain.ExportText, nil))
	assert.Empty(t, buf.String())
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, domain.ExportCSV, lines()))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, export.BOM))
	records, err := csv.NewReader(bytes.NewReader(data[len(export.BOM):])).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 4)
	assert.Equal(t, "Page", records[0][0])
	assert.Equal(t, []string{"1", "001.png", "1", "p0000_l0000", "Hello world", "Helo world", "No", "Yes"}, records[1])
	assert.Equal(t, "Yes", records[3][6])
}

func TestWrite_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.Write(&buf, domain.ExportXLSX, lines()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transcription")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Segment ID", rows[0][3])
	assert.Equal(t, "next page", rows[3][4])
}

func TestWrite_Unsupported(t *testing.T) {
	err := export.Write(&bytes.Buffer{}, domain.ExportFormat("pdf"), lines())
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestBuildFilename(t *testing.T) {
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Bhagavad_Gita_scans_2026-03-04.csv", export.BuildFilename("Bhagavad Gita / scans", domain.ExportCSV, now))
	assert.Equal(t, "transcription_2026-03-04.txt", export.BuildFilename("!!!", domain.ExportText, now))
}
