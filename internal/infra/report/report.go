// Package report renders the monthly payment report for download.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"gym-membership/internal/domain"
	"gym-membership/internal/usecase"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DateLayout matches how Indonesian locales print short dates (d/m/yyyy).
const DateLayout = "2/1/2006"

const sheetName = "Laporan"

var header = []string{"Tanggal", "Nama", "Email", "Paket", "Nominal", "Status"}

// ParseFormat defaults to CSV for an empty value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("report format %q: %w", s, domain.ErrInvalidArgument)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename is the download name, e.g. Laporan_2025-05.csv.
func Filename(month string, f Format) string {
	return fmt.Sprintf("Laporan_%s.%s", month, f)
}

// Write renders rep in the given format, followed by a TOTAL row.
func Write(w io.Writer, rep *usecase.MonthlyReport, f Format) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, rep)
	case FormatXLSX:
		return WriteXLSX(w, rep)
	}
	return domain.ErrInvalidArgument
}

func records(rep *usecase.MonthlyReport) [][]string {
	out := make([][]string, 0, len(rep.Rows)+2)
	out = append(out, header)
	for _, r := range rep.Rows {
		out = append(out, []string{
			r.Date.Format(DateLayout),
			r.MemberName,
			r.MemberEmail,
			r.PlanName,
			strconv.FormatInt(r.Amount, 10),
			r.Status,
		})
	}
	return append(out, []string{"", "", "", "TOTAL", strconv.FormatInt(rep.Total, 10), ""})
}

func WriteCSV(w io.Writer, rep *usecase.MonthlyReport) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(records(rep)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func WriteXLSX(w io.Writer, rep *usecase.MonthlyReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	headStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1F2937"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	_ = f.SetCellStyle(sheetName, "A1", "F1", headStyle)

	row := 2
	for _, r := range rep.Rows {
		values := []any{r.Date.Format(DateLayout), r.MemberName, r.MemberEmail, r.PlanName, r.Amount, r.Status}
		if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		row++
	}
	total := []any{"", "", "", "TOTAL", rep.Total, ""}
	if err := f.SetSheetRow(sheetName, fmt.Sprintf("A%d", row), &total); err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	_ = f.SetCellStyle(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), totalStyle)

	_ = f.SetColWidth(sheetName, "A", "A", 12)
	_ = f.SetColWidth(sheetName, "B", "C", 28)
	_ = f.SetColWidth(sheetName, "D", "D", 18)
	_ = f.SetColWidth(sheetName, "E", "F", 14)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
