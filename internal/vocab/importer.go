package vocab

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/example/vocabquiz/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath  string // Path to the Excel or CSV file
	SheetName string // Name of the sheet to import
	StartRow  int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration. Columns are
// fixed: id, topic, level, prompt, answer, example, transliteration.
func DefaultImportConfig(path string) ImportConfig {
	return ImportConfig{
		FilePath:  path,
		SheetName: "Sheet1",
		StartRow:  2, // skip header
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Imported       int
	Skipped        int
	Errors         []string
}

// ImportItems imports vocabulary items from an Excel or CSV file
func ImportItems(config ImportConfig) ([]models.VocabItem, *ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	if ext == ".csv" {
		return importFromCSV(config)
	}
	return importFromExcel(config)
}

func importFromExcel(config ImportConfig) ([]models.VocabItem, *ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	items := make([]models.VocabItem, 0, len(rows))

	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		item, err := itemFromRow(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			continue
		}
		items = append(items, item)
		result.Imported++
	}

	return items, result, nil
}

func importFromCSV(config ImportConfig) ([]models.VocabItem, *ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ImportResult{Errors: make([]string, 0)}
	items := make([]models.VocabItem, 0)

	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++

		item, err := itemFromRow(row)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}
		items = append(items, item)
		result.Imported++
	}

	return items, result, nil
}

// itemFromRow builds a vocabulary item from a spreadsheet row laid out as
// id, topic, level, prompt, answer, example, transliteration
func itemFromRow(row []string) (models.VocabItem, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	item := models.VocabItem{
		ID:              cell(0),
		Topic:           models.Topic(strings.ToLower(cell(1))),
		Level:           models.Level(strings.ToUpper(cell(2))),
		Prompt:          cell(3),
		Answer:          cell(4),
		Example:         cell(5),
		Transliteration: cell(6),
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Level == "" {
		item.Level = models.TopicLevel(item.Topic)
	}

	if !ValidItem(item) {
		return models.VocabItem{}, fmt.Errorf("missing required fields or unknown topic %q", item.Topic)
	}
	return item, nil
}
