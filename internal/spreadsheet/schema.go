// Package spreadsheet creates the workout database spreadsheet.
package spreadsheet

import (
	drive "google.golang.org/api/drive/v3"
	sheets "google.golang.org/api/sheets/v4"
)

// DefaultTitle is the title of the created spreadsheet
const DefaultTitle = "Workout App Database"

// Scopes are the OAuth2 scopes the setup needs: spreadsheet read/write
// and Drive access limited to files this app creates.
var Scopes = []string{
	sheets.SpreadsheetsScope,
	drive.DriveFileScope,
}

// Tab is one sheet of the spreadsheet and its header row
type Tab struct {
	Title   string
	Headers []string
}

// Schema lists the tabs in the order they are created
var Schema = []Tab{
	{
		Title:   "Exercises",
		Headers: []string{"id", "name", "muscleGroup", "equipment"},
	},
	{
		Title:   "Workouts",
		Headers: []string{"id", "name", "startTime", "endTime", "status"},
	},
	{
		Title:   "Sets",
		Headers: []string{"id", "workoutId", "exerciseId", "setNumber", "weight", "reps", "rpe", "completed", "timestamp"},
	},
}

// Build returns the create request body for a spreadsheet with one sheet
// per tab, each holding its header row.
func Build(title string, tabs []Tab) *sheets.Spreadsheet {
	ss := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title},
	}

	for _, tab := range tabs {
		cells := make([]*sheets.CellData, 0, len(tab.Headers))
		for _, header := range tab.Headers {
			header := header
			cells = append(cells, &sheets.CellData{
				UserEnteredValue: &sheets.ExtendedValue{StringValue: &header},
			})
		}

		ss.Sheets = append(ss.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: tab.Title},
			Data: []*sheets.GridData{{
				RowData: []*sheets.RowData{{Values: cells}},
			}},
		})
	}

	return ss
}
