package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ogurasousui/hrnet/internal/core/employee"
	"github.com/ogurasousui/hrnet/internal/core/employeelist"
)

// SheetName は書き出すワークシート名です。
const SheetName = "Employees"

var (
	// ErrEmptyWorkbook はワークシートに行が無い場合のエラーです。
	ErrEmptyWorkbook = errors.New("export: worksheet is empty")
	// ErrMissingColumn は必要な見出しが見つからない場合のエラーです。
	ErrMissingColumn = errors.New("export: missing column")
)

// WriteXLSX は見出し行付きのワークブックとして rows を w へ書き出します。
func WriteXLSX(w io.Writer, rows []employee.Employee) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}

	columns := employeelist.Columns()
	header := make([]any, 0, len(columns))
	for _, c := range columns {
		header = append(header, c.Label)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return fmt.Errorf("export: apply header style: %w", err)
	}

	for i, e := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := make([]any, 0, len(columns))
		for _, c := range columns {
			values = append(values, employeelist.CellText(e, c.Key))
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("export: write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", lastCol, 16); err != nil {
		return fmt.Errorf("export: column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}

// ReadXLSX は先頭ワークシートを読み込み、見出しに従って未検証の入力へ変換します。
// 見出しは表示名 ("First Name") と項目名 ("firstName") のどちらも受け付けます。
func ReadXLSX(r io.Reader) ([]employee.Input, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("export: open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyWorkbook
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("export: read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyWorkbook
	}

	index := map[employeelist.SortKey]int{}
	for i, h := range rows[0] {
		if key, ok := headerKey(h); ok {
			index[key] = i
		}
	}
	for _, c := range employeelist.Columns() {
		if _, ok := index[c.Key]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c.Label)
		}
	}

	inputs := make([]employee.Input, 0, len(rows)-1)
	for _, row := range rows[1:] {
		get := func(key employeelist.SortKey) string {
			return cellValue(row, index[key])
		}
		in := employee.Input{
			FirstName:   get(employeelist.SortFirstName),
			LastName:    get(employeelist.SortLastName),
			DateOfBirth: dateValue(get(employeelist.SortDateOfBirth)),
			StartDate:   dateValue(get(employeelist.SortStartDate)),
			Street:      get(employeelist.SortStreet),
			City:        get(employeelist.SortCity),
			State:       get(employeelist.SortState),
			ZipCode:     get(employeelist.SortZipCode),
			Department:  get(employeelist.SortDepartment),
		}
		if in == (employee.Input{}) {
			continue
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func headerKey(raw string) (employeelist.SortKey, bool) {
	normalized := normalizeHeader(raw)
	for _, c := range employeelist.Columns() {
		if normalized == normalizeHeader(c.Label) || normalized == normalizeHeader(string(c.Key)) {
			return c.Key, true
		}
	}
	return employeelist.SortNone, false
}

func normalizeHeader(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "")
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// dateValue は Excel のシリアル値を YYYY-MM-DD に変換し、それ以外はそのまま返します。
func dateValue(raw string) string {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return raw
	}
	return t.Format(time.DateOnly)
}
