package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

const (
	columnClass    = "Class"
	columnTimeSlot = "Time Slot"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	RenderSections(title string, sections []export.Section) ([]byte, error)
}

// ClassGrid is the day x slot view of one class's weekly timetable.
type ClassGrid struct {
	ClassName string
	cells     map[string]map[string]models.TimetableEntry
}

// Cell returns the entry booked at day and slot, if any.
func (g ClassGrid) Cell(day, slot string) (models.TimetableEntry, bool) {
	entry, ok := g.cells[day][slot]
	return entry, ok
}

// BuildClassGrids pivots a flat timetable into per-class grids ordered by class name.
func BuildClassGrids(entries []models.TimetableEntry) []ClassGrid {
	byClass := make(map[string]*ClassGrid)
	for _, entry := range entries {
		grid, ok := byClass[entry.ClassName]
		if !ok {
			grid = &ClassGrid{ClassName: entry.ClassName, cells: make(map[string]map[string]models.TimetableEntry)}
			byClass[entry.ClassName] = grid
		}
		if grid.cells[entry.Day] == nil {
			grid.cells[entry.Day] = make(map[string]models.TimetableEntry)
		}
		grid.cells[entry.Day][entry.TimeSlot] = entry
	}

	grids := make([]ClassGrid, 0, len(byClass))
	for _, grid := range byClass {
		grids = append(grids, *grid)
	}
	sort.Slice(grids, func(i, j int) bool { return grids[i].ClassName < grids[j].ClassName })
	return grids
}

// ExportService renders stored timetables as downloadable files.
type ExportService struct {
	csv csvRenderer
	pdf pdfRenderer
}

// NewExportService constructs an ExportService.
func NewExportService(csv csvRenderer, pdf pdfRenderer) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{csv: csv, pdf: pdf}
}

// Render encodes entries in the requested format. CSV output holds every
// class in one sheet; PDF output gives each class its own page.
func (s *ExportService) Render(runID string, entries []models.TimetableEntry, format models.ExportFormat) (*dto.TimetableExport, error) {
	grids := BuildClassGrids(entries)
	filename := fmt.Sprintf("timetable_%s.%s", sanitizeFilename(runID), format)

	switch format {
	case models.ExportFormatCSV:
		payload, err := s.csv.Render(csvDataset(grids))
		if err != nil {
			return nil, err
		}
		return &dto.TimetableExport{Filename: filename, ContentType: "text/csv", Content: payload}, nil
	case models.ExportFormatPDF:
		sections := make([]export.Section, 0, len(grids))
		for _, grid := range grids {
			sections = append(sections, export.Section{Title: "Class " + grid.ClassName, Data: gridDataset(grid)})
		}
		if len(sections) == 0 {
			sections = append(sections, export.Section{Data: gridDataset(ClassGrid{})})
		}
		payload, err := s.pdf.RenderSections("Weekly Timetable", sections)
		if err != nil {
			return nil, err
		}
		return &dto.TimetableExport{Filename: filename, ContentType: "application/pdf", Content: payload}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func gridHeaders(withClass bool) []string {
	headers := make([]string, 0, len(scheduler.Days)+2)
	if withClass {
		headers = append(headers, columnClass)
	}
	headers = append(headers, columnTimeSlot)
	return append(headers, scheduler.Days...)
}

func gridRows(grid ClassGrid, withClass bool) []map[string]string {
	rows := make([]map[string]string, 0, len(scheduler.TimeSlots))
	for _, slot := range scheduler.TimeSlots {
		row := map[string]string{columnTimeSlot: slot}
		if withClass {
			row[columnClass] = grid.ClassName
		}
		for _, day := range scheduler.Days {
			if entry, ok := grid.Cell(day, slot); ok {
				row[day] = formatCell(entry)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func gridDataset(grid ClassGrid) export.Dataset {
	return export.Dataset{Headers: gridHeaders(false), Rows: gridRows(grid, false)}
}

func csvDataset(grids []ClassGrid) export.Dataset {
	dataset := export.Dataset{Headers: gridHeaders(true)}
	for _, grid := range grids {
		dataset.Rows = append(dataset.Rows, gridRows(grid, true)...)
	}
	return dataset
}

func formatCell(entry models.TimetableEntry) string {
	return fmt.Sprintf("%s (%s, %s)", entry.SubjectName, entry.TeacherName, entry.RoomName)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
