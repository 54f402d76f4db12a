package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	ds := Dataset{Title: "Payment history", Headers: []string{"Date", "Amount", "Status"}, Footer: "Total 0.03 USD"}
	ds.AddRow("2024-01-01", "0.01", "succeeded")
	ds.AddRow("2024-02-01", "0.02")
	return ds
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	f, err = ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}

func TestCSVRender(t *testing.T) {
	out, err := For(FormatCSV).Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "Date,Amount,Status\n2024-01-01,0.01,succeeded\n2024-02-01,0.02,\n", string(out))
}

func TestPDFRender(t *testing.T) {
	out, err := For(FormatPDF).Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderRequiresHeaders(t *testing.T) {
	_, err := NewCSVRenderer().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFRenderer().Render(Dataset{})
	assert.Error(t, err)
}
