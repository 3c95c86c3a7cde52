package scanner

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Receipt is one normalized row of an ASSIT receipt export.
type Receipt struct {
	PolicyID      string    `json:"policy_id"`
	EffectiveDate time.Time `json:"effective_date"` // zero when the row carried no usable date
	Row           int       `json:"row"`            // 1-based position among the data rows
}

// Header spellings seen in ASSIT exports, compared after key normalization.
var (
	policyIDKeys = []string{"membershipid", "membership_id", "policynumber", "policy_number", "policyno"}
	dateKeys     = []string{"effectivedate", "effective_date", "receiptdate", "receipt_date", "date"}
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2 Jan 2006",
}

// excelEpoch is day zero of the 1900 date system as used by Excel (accounts for the 1900 leap bug).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// normalizeKey folds "Membership ID", "MembershipID" and "membership id" to the same key.
func normalizeKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer(" ", "", "-", "", ".", "").Replace(k)
}

func lookup(row map[string]any, keys []string) (any, bool) {
	for k, v := range row {
		nk := normalizeKey(k)
		for _, want := range keys {
			if nk == want {
				return v, true
			}
		}
	}
	return nil, false
}

// NormalizeRows maps heterogeneous key/value rows onto Receipts.
// Rows without a policy id are kept so stats reflect the full export.
func NormalizeRows(rows []map[string]any) []Receipt {
	out := make([]Receipt, 0, len(rows))
	for i, row := range rows {
		r := Receipt{Row: i + 1}
		if v, ok := lookup(row, policyIDKeys); ok {
			r.PolicyID = strings.TrimSpace(toString(v))
		}
		if v, ok := lookup(row, dateKeys); ok {
			if d, err := ParseDate(v); err == nil {
				r.EffectiveDate = d
			}
		}
		out = append(out, r)
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// ParseDate accepts the date representations found in receipt exports:
// time.Time, layout strings and Excel serial day numbers.
func ParseDate(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case float64:
		return fromExcelSerial(t)
	case int:
		return fromExcelSerial(float64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, errors.New("empty date")
		}
		for _, layout := range dateLayouts {
			if d, err := time.Parse(layout, s); err == nil {
				return d, nil
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return fromExcelSerial(f)
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", s)
	}
	return time.Time{}, fmt.Errorf("unsupported date value %T", v)
}

func fromExcelSerial(serial float64) (time.Time, error) {
	if serial <= 0 || serial > 2958465 || math.IsNaN(serial) {
		return time.Time{}, fmt.Errorf("excel serial %v out of range", serial)
	}
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	return excelEpoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second), nil
}

// ReadXLSX reads the first sheet of an ASSIT export. The first non-empty row is the header.
func ReadXLSX(r io.Reader) ([]Receipt, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("xlsx has no sheets")
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var header []string
	records := make([]map[string]any, 0, len(rows))
	for _, cells := range rows {
		if isBlank(cells) {
			continue
		}
		if header == nil {
			header = cells
			continue
		}
		rec := make(map[string]any, len(header))
		for i, name := range header {
			if i < len(cells) {
				rec[name] = cells[i]
			}
		}
		records = append(records, rec)
	}
	if header == nil {
		return nil, errors.New("xlsx has no header row")
	}
	return NormalizeRows(records), nil
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
