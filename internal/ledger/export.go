package ledger

import (
	"fmt"
	"io"

	"github.com/360EntSecGroup-Skylar/excelize"
)

const exportSheet = "Consultations"

var exportColumns = []string{
	"Date", "Username", "Name", "Age", "Gender", "Contact", "Email",
	"Conditions", "Prescription", "Advice", "ID",
}

// Export writes entries as an XLSX workbook, one row per consultation.
func Export(w io.Writer, entries []*Entry) error {
	file := excelize.NewFile()
	index := file.NewSheet(exportSheet)
	file.SetActiveSheet(index)
	file.DeleteSheet("Sheet1")

	for i, title := range exportColumns {
		file.SetCellValue(exportSheet, cell(i, 1), title)
	}
	for n, e := range entries {
		appendRow(file, n+2, e)
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write ledger workbook: %w", err)
	}
	return nil
}

func appendRow(file *excelize.File, row int, e *Entry) {
	values := []interface{}{
		e.CompletionDate, e.Username, e.Name, e.Age, e.Gender, e.Contact, e.Email,
		e.Conditions, e.Prescription, e.Advice, e.ID.String(),
	}
	for i, v := range values {
		file.SetCellValue(exportSheet, cell(i, row), v)
	}
}

// cell names column col (zero-based, at most 26 columns) in row.
func cell(col, row int) string {
	return fmt.Sprintf("%c%d", 'A'+col, row)
}
