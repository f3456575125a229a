// Package export は社員一覧を PDF と XLSX に書き出し、XLSX から取り込みます。
package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/ogurasousui/hrnet/internal/core/employee"
	"github.com/ogurasousui/hrnet/internal/core/employeelist"
)

// 列幅は横向き Letter の本文幅に対する比率です。
var pdfColumnWeights = map[employeelist.SortKey]float64{
	employeelist.SortFirstName:   1.1,
	employeelist.SortLastName:    1.1,
	employeelist.SortStartDate:   0.9,
	employeelist.SortDepartment:  1.2,
	employeelist.SortDateOfBirth: 0.9,
	employeelist.SortStreet:      1.6,
	employeelist.SortCity:        1.1,
	employeelist.SortState:       0.5,
	employeelist.SortZipCode:     0.7,
}

const (
	pdfMargin     = 12.0
	pdfRowHeight  = 6.0
	pdfHeadHeight = 7.0
)

// WritePDF は rows を表形式の PDF として w へ書き出します。
func WritePDF(w io.Writer, rows []employee.Employee, title string) error {
	pdf := fpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AliasNbPages("{nb}")
	pdf.SetTitle(title, true)

	columns := employeelist.Columns()
	widths := columnWidths(pdf, columns)

	pdf.SetHeaderFunc(func() {
		pageW, _ := pdf.GetPageSize()
		contentW := pageW - 2*pdfMargin

		pdf.SetFillColor(30, 30, 30)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW*0.8, 9, title, "", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(contentW*0.2, 9, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 1, "R", true, 0, "")
		pdf.Ln(2)

		pdf.SetFillColor(240, 240, 240)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "B", 8.5)
		for i, c := range columns {
			pdf.CellFormat(widths[i], pdfHeadHeight, c.Label, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	})

	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 8.5)

	if len(rows) == 0 {
		pdf.CellFormat(sum(widths), pdfRowHeight, "No data available in table", "1", 1, "C", false, 0, "")
	}

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for n, e := range rows {
		fill := n%2 == 1
		pdf.SetFillColor(248, 248, 248)
		for i, c := range columns {
			text := truncate(pdf, tr(employeelist.CellText(e, c.Key)), widths[i]-2)
			pdf.CellFormat(widths[i], pdfRowHeight, text, "LR", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}
	// 表の下端を閉じる
	pdf.CellFormat(sum(widths), 0, "", "T", 1, "L", false, 0, "")

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("%d entries", len(rows)), "", 1, "L", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("export: write pdf: %w", err)
	}
	return nil
}

func columnWidths(pdf *fpdf.Fpdf, columns []employeelist.Column) []float64 {
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*pdfMargin

	total := 0.0
	for _, c := range columns {
		total += pdfColumnWeights[c.Key]
	}

	widths := make([]float64, len(columns))
	for i, c := range columns {
		widths[i] = contentW * pdfColumnWeights[c.Key] / total
	}
	return widths
}

func truncate(pdf *fpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
