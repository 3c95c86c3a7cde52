package scanner

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNormalizeRows(t *testing.T) {
	rows := []map[string]any{
		{"MembershipID": "P1", "Effective Date": "2024-03-10"},
		{"membership_id": "P2", "effective_date": "2024-03-11T09:00:00Z"},
		{"Membership ID": "P3", "EffectiveDate": "10/03/2024"},
		{"MembershipId": "P4", "Receipt Date": 45361.0},
		{"Policy Number": " P5 ", "Effective Date": "not a date"},
		{"Amount": 100.0},
	}

	got := NormalizeRows(rows)
	require.Len(t, got, 6)

	march10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Receipt{PolicyID: "P1", EffectiveDate: march10, Row: 1}, got[0])
	assert.Equal(t, "P2", got[1].PolicyID)
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), got[1].EffectiveDate)
	assert.Equal(t, march10, got[2].EffectiveDate)
	assert.Equal(t, march10, got[3].EffectiveDate)
	assert.Equal(t, "P5", got[4].PolicyID)
	assert.True(t, got[4].EffectiveDate.IsZero())
	assert.Empty(t, got[5].PolicyID)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    time.Time
		wantErr bool
	}{
		{name: "iso", in: "2024-03-10", want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{name: "slashes", in: "2024/03/10", want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{name: "day first", in: "10/03/2024", want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{name: "datetime", in: "2024-03-10 14:30:00", want: time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)},
		{name: "serial string", in: "45361", want: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)},
		{name: "serial with time", in: 45361.5, want: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)},
		{name: "empty", in: "  ", wantErr: true},
		{name: "garbage", in: "yesterday", wantErr: true},
		{name: "negative serial", in: -3.0, wantErr: true},
		{name: "unsupported", in: true, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s got %s", tt.want, got)
		})
	}
}

func TestReadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Membership ID", "Effective Date", "Amount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"P1", "2024-03-10", 150}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"P2", 45361, 99.5}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	got, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, got, 2)

	march10 := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "P1", got[0].PolicyID)
	assert.Equal(t, march10, got[0].EffectiveDate)
	assert.Equal(t, "P2", got[1].PolicyID)
	assert.Equal(t, march10, got[1].EffectiveDate)
}

func TestReadXLSXRejectsGarbage(t *testing.T) {
	_, err := ReadXLSX(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}
