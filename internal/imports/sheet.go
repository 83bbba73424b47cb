package imports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"inventory/m/domain"
)

// RequiredColumns must be present in every uploaded sheet.
var RequiredColumns = []string{"name", "price", "stock"}

// Sheet is a header row plus data rows, blank rows removed.
type Sheet struct {
	columns map[string]int
	Rows    [][]string
}

// Supported reports whether the file name has an extension ReadSheet accepts.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".csv":
		return true
	}
	return false
}

// ReadSheet loads the first sheet of an .xlsx file or a whole .csv file.
func ReadSheet(path string) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		records, err = readXLSX(path)
	case ".csv":
		records, err = readCSV(path)
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("el archivo está vacío")
	}

	s := &Sheet{columns: make(map[string]int)}
	for i, h := range records[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, seen := s.columns[key]; key != "" && !seen {
			s.columns[key] = i
		}
	}
	for _, rec := range records[1:] {
		if !blank(rec) {
			s.Rows = append(s.Rows, rec)
		}
	}
	return s, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("el libro no tiene hojas")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		records = append(records, rec)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

// ValidateColumns checks that every required column is present.
func (s *Sheet) ValidateColumns() error {
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := s.columns[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return domain.Invalidf("Faltan columnas requeridas: %s", strings.Join(missing, ", "))
	}
	return nil
}

// cell returns the trimmed value of column in rec, or "" when absent.
func (s *Sheet) cell(rec []string, column string) string {
	i, ok := s.columns[column]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
