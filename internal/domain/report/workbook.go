package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/James-CPE/API-NCD/internal/domain/person"
)

const (
	HospitalSheet = "hospdata"
	TotalsLabel   = "รวม"
)

// HospitalHeader is the first row of the hospital workbook. Bucket columns
// use the stored status labels.
var HospitalHeader = func() []string {
	h := []string{"รหัสหน่วยบริการ", "ชื่อหน่วยบริการ", "จำนวนผู้ป่วย"}
	for _, b := range person.StatusBuckets {
		h = append(h, b.Label)
	}
	return append(h, "อื่นๆ")
}()

func hospitalValues(r *HospitalRow) []interface{} {
	name := ""
	if r.HospName2 != nil {
		name = *r.HospName2
	}
	vals := []interface{}{r.HospName, name, r.Patients}
	for _, b := range person.StatusBuckets {
		vals = append(vals, *r.field(b.Bucket))
	}
	return append(vals, r.Other)
}

// HospitalWorkbook builds the hospital summary workbook: a header, one row per
// hospital, then a bold totals row.
func HospitalWorkbook(rows []*HospitalRow, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", HospitalSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "NCD hospital summary",
		Created: generated.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, fmt.Errorf("set doc props: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := writeRow(f, 1, toInterfaces(HospitalHeader), bold); err != nil {
		return nil, err
	}
	for i, r := range rows {
		if err := writeRow(f, i+2, hospitalValues(r), 0); err != nil {
			return nil, err
		}
	}
	totals := Totals(TotalsLabel, rows)
	if err := writeRow(f, len(rows)+2, hospitalValues(&totals), bold); err != nil {
		return nil, err
	}

	last, err := excelize.ColumnNumberToName(len(HospitalHeader))
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(HospitalSheet, "A", "A", 18); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(HospitalSheet, "B", "B", 36); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(HospitalSheet, "C", last, 14); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, row int, values []interface{}, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(HospitalSheet, start, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	if style == 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(HospitalSheet, start, end, style)
}

func toInterfaces(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
