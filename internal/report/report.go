package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aryanahadi/canteen-bot/internal/models"
	"github.com/xuri/excelize/v2"
)

var ErrNoReservations = errors.New("failed to generate report, 0 reservations were provided")

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file *excelize.File
}

// ExcelRow holds the structured row for excel file.
type ExcelRow struct {
	ID         int64     `json:"id"`          // Unique identifier for the reservation
	FullName   string    `json:"full_name"`   // Name of the employee
	NationalID string    `json:"national_id"` // National ID of the employee
	Phone      string    `json:"phone"`       // Phone number of the employee
	Meal       string    `json:"meal"`        // Selected meal option
	Status     string    `json:"status"`      // Reservation status
	UpdatedAt  time.Time `json:"updated_at"`  // Time of the last change
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		file: excelize.NewFile(),
	}
}

// RowsFromDetails converts reservation details into report rows.
func RowsFromDetails(details []models.ReservationDetail) []ExcelRow {
	rows := make([]ExcelRow, 0, len(details))
	for _, detail := range details {
		rows = append(rows, ExcelRow{
			ID:         detail.ID,
			FullName:   detail.FullName,
			NationalID: detail.NationalID,
			Phone:      detail.Phone,
			Meal:       detail.SelectedMeal,
			Status:     detail.Status,
			UpdatedAt:  detail.UpdatedAt,
		})
	}
	return rows
}

// GenerateExcelReport generates an Excel report for the reservations of a
// single day. Rows are grouped into one sheet per reservation status so the
// kitchen sees active orders apart from cancellations. If no rows are
// provided it returns ErrNoReservations. The function returns a bytes.Buffer
// containing the Excel file or an error if any operation fails.
func GenerateExcelReport(rows []ExcelRow) (*bytes.Buffer, error) {
	var err error

	if len(rows) == 0 {
		return nil, ErrNoReservations
	}

	rowsByStatus := make(map[string][]ExcelRow)
	for _, row := range rows {
		rowsByStatus[row.Status] = append(rowsByStatus[row.Status], row)
	}

	gen := NewGenerator()
	defer gen.file.Close()

	if err = gen.addSheets(rowsByStatus); err != nil {
		return nil, fmt.Errorf("failed to add sheets: %w", err)
	}

	// setup first sheet as active
	gen.file.SetActiveSheet(0)

	// delete default sheet
	if sheetIndex, _ := gen.file.GetSheetIndex("Sheet1"); sheetIndex != -1 {
		if err = gen.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}

	buffer, err := gen.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

// addSheets adds new sheets to the generator's file based on the provided
// rowsByStatus map. Each key in the map represents a reservation status, and
// the corresponding value is a slice of rows. The function creates a new
// sheet for each status, sets up the sheet, and populates it with the
// reservation details. It returns an error if any operation fails during
// the process.
func (g *Generator) addSheets(rowsByStatus map[string][]ExcelRow) error {
	var err error
	headerIndex := 2

	for status, rowsInStatus := range rowsByStatus {
		sheetName := truncateSheetName(status)

		if _, err = g.file.NewSheet(sheetName); err != nil {
			return fmt.Errorf("failed to generate new sheet '%s': %w", sheetName, err)
		}

		if err = g.setupSheet(sheetName, len(rowsInStatus)); err != nil {
			return fmt.Errorf("failed to setup sheet '%s': %w", sheetName, err)
		}

		// Fill data
		for i, row := range rowsInStatus {
			if err = g.addRow(sheetName, i+headerIndex, row); err != nil { // i+2, because the first row - header
				return fmt.Errorf("failed to add row '%d': %w", i+headerIndex, err)
			}
		}
	}
	return nil
}

// setupSheet initializes the specified sheet with headers, styles, and column widths.
// It creates a header style, sets the row height for the headers, and populates the headers
// in the first row. It also configures the width for each column and adds a table to the sheet.
//
// Parameters:
// - sheetName: The name of the sheet to set up.
// - rowCount: The number of rows to determine the range of the table.
//
// Returns:
// - error: An error if any operation fails, otherwise returns nil.
func (g *Generator) setupSheet(sheetName string, rowCount int) error {
	var err error

	// Style creating
	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	// Headers creating
	rowHeighnt := 20
	headers := []string{"ID", "Employee", "National ID", "Phone", "Meal", "Status", "Updated"}
	if err = g.file.SetRowHeight(sheetName, 1, float64(rowHeighnt)); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}
	if err = g.file.SetCellStyle(sheetName, "A1", "G1", headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	// Setup width column
	widths := map[string]float64{
		"A": 10, "B": 30, "C": 16, "D": 18, "E": 35, "F": 12, "G": 20, //nolint:mnd // const values for row width
	}
	for col, width := range widths {
		if err = g.file.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// Add table
	if err = g.file.AddTable(sheetName, &excelize.Table{
		Range:     fmt.Sprintf("A1:G%d", rowCount+1),
		Name:      "table_" + strings.ReplaceAll(sheetName, " ", ""),
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

// addRow adds a new row to the specified sheet with the details of the given
// reservation. It takes the sheet name, the row number where the data should
// be added, and the row data as parameters. If the operation fails, it
// returns an error.
func (g *Generator) addRow(sheetName string, rowNum int, row ExcelRow) error {
	rowData := []interface{}{
		row.ID,
		row.FullName,
		row.NationalID,
		row.Phone,
		row.Meal,
		row.Status,
		row.UpdatedAt.Format("02.01.2006 15:04"),
	}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)

	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}

	return nil
}

// truncateSheetName truncates the given sheet name to a maximum of 31 runes.
// If the name exceeds 31 runes, it returns the first 31 runes of the name.
// Otherwise, it returns the name as is.
func truncateSheetName(name string) string {
	if utf8.RuneCountInString(name) > 31 {
		runes := []rune(name)
		return string(runes[:31])
	}
	return name
}
