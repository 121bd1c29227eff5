package tabular

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gojiplus/statqa/domain/dataset"
)

// FileReader loads a rectangular table from a CSV or Excel file. The first
// row is the header; every cell is kept as its raw string so missing-value
// coding stays intact for the analyzers.
type FileReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
}

// NewFileReader creates a reader, picking the format from the extension.
func NewFileReader(filePath string) *FileReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(filePath)) == ".csv" {
		fileType = "csv"
	}
	return &FileReader{filePath: filePath, fileType: fileType, sheet: "Sheet1"}
}

// WithSheet overrides the Excel sheet name.
func (r *FileReader) WithSheet(sheet string) *FileReader {
	r.sheet = sheet
	return r
}

// Read implements ports.DatasetReader.
func (r *FileReader) Read() (*dataset.Dataset, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have a header row and at least one data row", r.fileType)
	}
	return buildDataset(datasetName(r.filePath), rows)
}

func (r *FileReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

func (r *FileReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", r.sheet, err)
	}
	return rows, nil
}

// buildDataset turns header + data rows into columns. Ragged rows are padded
// with empty cells, which the analyzers treat as missing.
func buildDataset(name string, rows [][]string) (*dataset.Dataset, error) {
	header := rows[0]
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}

	columns := make([][]string, len(names))
	for i := range columns {
		columns[i] = make([]string, 0, len(rows)-1)
	}
	for _, row := range rows[1:] {
		for i := range names {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			columns[i] = append(columns[i], cell)
		}
	}

	ds := dataset.New(name)
	for i, colName := range names {
		if colName == "" {
			return nil, fmt.Errorf("dataset %s: empty column name at position %d", name, i)
		}
		if err := ds.AddColumn(colName, columns[i]); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func datasetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
