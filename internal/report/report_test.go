package report_test

import (
	"testing"
	"time"

	"github.com/aryanahadi/canteen-bot/internal/models"
	"github.com/aryanahadi/canteen-bot/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateExcelReport(t *testing.T) {
	testRows := []report.ExcelRow{
		{ID: 1, Status: models.StatusReserved, FullName: "Sara Karimi", Meal: "ghormeh sabzi", UpdatedAt: time.Now()},
		{ID: 2, Status: models.StatusCanceled, FullName: "Omid Rahimi", Meal: "zereshk polo", UpdatedAt: time.Now()},
		{ID: 3, Status: models.StatusReserved, FullName: "Niloofar Ahmadi", Meal: "fesenjan", UpdatedAt: time.Now()},
	}

	t.Run("successful report generation", func(t *testing.T) {
		buffer, err := report.GenerateExcelReport(testRows)

		require.NoError(t, err)
		assert.NotNil(t, buffer)

		f, err := excelize.OpenReader(buffer)
		require.NoError(t, err)
		defer f.Close()

		sheetList := f.GetSheetList()
		assert.ElementsMatch(t, []string{models.StatusReserved, models.StatusCanceled}, sheetList)

		headerVal, err := f.GetCellValue(models.StatusReserved, "A1")
		require.NoError(t, err)
		assert.Equal(t, "ID", headerVal)

		idVal, err := f.GetCellValue(models.StatusReserved, "A2")
		require.NoError(t, err)
		assert.Equal(t, "1", idVal)

		nameVal, err := f.GetCellValue(models.StatusReserved, "B3")
		require.NoError(t, err)
		assert.Equal(t, "Niloofar Ahmadi", nameVal)
	})

	t.Run("no reservations found", func(t *testing.T) {
		buffer, err := report.GenerateExcelReport([]report.ExcelRow{})

		require.Error(t, err)
		assert.Nil(t, buffer)
		require.ErrorIs(t, err, report.ErrNoReservations)
	})
}

func TestRowsFromDetails(t *testing.T) {
	now := time.Now()
	details := []models.ReservationDetail{
		{ID: 5, FullName: "Sara Karimi", NationalID: "0012345678", Phone: "+989121234567",
			SelectedMeal: "adas polo", Status: models.StatusReserved, UpdatedAt: now},
	}

	rows := report.RowsFromDetails(details)

	require.Len(t, rows, 1)
	assert.Equal(t, int64(5), rows[0].ID)
	assert.Equal(t, "adas polo", rows[0].Meal)
	assert.Equal(t, models.StatusReserved, rows[0].Status)
	assert.Equal(t, now, rows[0].UpdatedAt)
}
