package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ogurasousui/hrnet/internal/core/employee"
	"github.com/ogurasousui/hrnet/internal/core/employeelist"
)

const (
	indicatorAscending = "▲"
	indicatorOther     = "▼"
	noDataMessage      = "No data available in table"
)

// RenderPage は一覧表と件数表示を w へ書き出します。
func RenderPage(w io.Writer, page employeelist.Page, state employeelist.ViewState) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	columns := employeelist.Columns()

	headers := make([]string, 0, len(columns))
	for _, c := range columns {
		headers = append(headers, c.Label+" "+sortIndicator(c.Key, state))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	if page.Empty() {
		fmt.Fprintln(tw, noDataMessage)
	}
	for _, e := range page.Rows {
		cells := make([]string, 0, len(columns))
		for _, c := range columns {
			cells = append(cells, employeelist.CellText(e, c.Key))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, Footer(page))
	return err
}

// sortIndicator は昇順で並べ替え中の列に ▲、それ以外の列に ▼ を返します。
func sortIndicator(key employeelist.SortKey, state employeelist.ViewState) string {
	if state.SortKey == key && state.SortDirection == employeelist.Ascending {
		return indicatorAscending
	}
	return indicatorOther
}

// Footer は "Showing X to Y of Z entries" とページ位置を返します。
func Footer(page employeelist.Page) string {
	return fmt.Sprintf("Showing %d to %d of %d entries  (page %d of %d)",
		page.FirstEntry(), page.LastEntry(), page.TotalFiltered, page.CurrentPage, page.TotalPages)
}

// RenderEmployee は 1 件の詳細を書き出します。
func RenderEmployee(w io.Writer, e employee.Employee) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\t%s\n", e.ID)
	for _, c := range employeelist.Columns() {
		fmt.Fprintf(tw, "%s\t%s\n", c.Label, employeelist.CellText(e, c.Key))
	}
	return tw.Flush()
}

// RenderError は検証エラーを項目ごとに書き出し、それ以外は 1 行で書き出します。
func RenderError(w io.Writer, err error) {
	var verr *employee.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(w, "error: validation failed")
		for _, f := range verr.Fields {
			fmt.Fprintf(w, "  %s: %s\n", f.Field, f.Message)
		}
		return
	}
	fmt.Fprintln(w, "error:", err)
}
