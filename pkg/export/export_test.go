package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridDataset() Dataset {
	return Dataset{
		Headers: []string{"Time Slot", "Monday"},
		Rows: []map[string]string{
			{"Time Slot": "09:00-10:00", "Monday": "Math (Alice, R1)"},
			{"Time Slot": "10:00-11:00"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(gridDataset())
	require.NoError(t, err)
	assert.Equal(t, "Time Slot,Monday\n09:00-10:00,\"Math (Alice, R1)\"\n10:00-11:00,\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestCSVExporterRejectsDuplicateHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{Headers: []string{"Monday", "Monday"}})
	assert.EqualError(t, err, `csv header "Monday" is duplicated`)
}

func TestCSVExporterWithOptions(t *testing.T) {
	exporter, err := NewCSVExporterWithOptions(CSVOptions{Comma: ';', UseCRLF: true, ByteOrderMark: true})
	require.NoError(t, err)

	out, err := exporter.Render(gridDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	assert.Equal(t, "Time Slot;Monday\r\n09:00-10:00;Math (Alice, R1)\r\n10:00-11:00;\r\n", string(out[3:]))
}

func TestNewCSVExporterWithOptionsRejectsQuoteDelimiter(t *testing.T) {
	_, err := NewCSVExporterWithOptions(CSVOptions{Comma: '"'})
	assert.Error(t, err)
}

func TestPDFExporterRenderSections(t *testing.T) {
	out, err := NewPDFExporter().RenderSections("Timetable", []Section{
		{Title: "10A", Data: gridDataset()},
		{Title: "10B", Data: gridDataset()},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRejectsEmptyInput(t *testing.T) {
	_, err := NewPDFExporter().RenderSections("Timetable", nil)
	assert.Error(t, err)

	_, err = NewPDFExporter().Render(Dataset{}, "Timetable")
	assert.Error(t, err)
}
