// Package tabular reads entity, person, and partner batches from CSV and
// XLSX files. Columns are matched by header name, so column order does not
// matter; missing optional columns default to empty.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/govmapmy/govgraph/record"
)

// ErrUnsupportedFormat is returned for file extensions other than .csv and
// .xlsx.
var ErrUnsupportedFormat = errors.New("tabular: unsupported file format")

// ReadEntities reads entity rows from a CSV or XLSX file.
func ReadEntities(path string) ([]record.Entity, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	rows := make([]record.Entity, 0, len(table.rows))
	for _, row := range table.rows {
		rows = append(rows, record.Entity{
			EntityID:        table.get(row, "entity_id"),
			Name:            table.get(row, "name"),
			EntityType:      table.get(row, "entity_type"),
			Mandate:         table.get(row, "mandate"),
			State:           table.get(row, "state"),
			ParentOrg:       table.get(row, "parent_org"),
			PolicyAlignment: table.get(row, "policy_alignment"),
			Latitude:        table.get(row, "latitude"),
			Longitude:       table.get(row, "longitude"),
		})
	}
	return rows, nil
}

// ReadPeople reads person rows from a CSV or XLSX file.
func ReadPeople(path string) ([]record.Person, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	rows := make([]record.Person, 0, len(table.rows))
	for _, row := range table.rows {
		rows = append(rows, record.Person{
			PersonID:        table.get(row, "person_id"),
			Name:            table.get(row, "name"),
			Title:           table.get(row, "title"),
			RoleType:        table.get(row, "role_type"),
			FocusArea:       table.get(row, "focus_area"),
			EntityID:        table.get(row, "entity_id"),
			ConfidenceScore: table.get(row, "confidence_score"),
			Email:           table.get(row, "email"),
			Source:          table.get(row, "source"),
		})
	}
	return rows, nil
}

// ReadPartners reads partner rows from a CSV or XLSX file.
func ReadPartners(path string) ([]record.Partner, error) {
	table, err := readTable(path)
	if err != nil {
		return nil, err
	}
	rows := make([]record.Partner, 0, len(table.rows))
	for _, row := range table.rows {
		rows = append(rows, record.Partner{
			PartnerID:        table.get(row, "partner_id"),
			CompanyName:      table.get(row, "company_name"),
			FocusArea:        table.get(row, "focus_area"),
			EntityID:         table.get(row, "entity_id"),
			RelationshipType: table.get(row, "relationship_type"),
			ContractValueRM:  table.get(row, "contract_value_rm"),
			ContractYear:     table.get(row, "contract_year"),
			ProcurementStage: table.get(row, "procurement_stage"),
		})
	}
	return rows, nil
}

// table is a parsed sheet: a header index plus data rows.
type table struct {
	columns map[string]int
	rows    [][]string
}

func (t *table) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func readTable(path string) (*table, error) {
	var raw [][]string
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		raw, err = readCSV(path)
	case ".xlsx":
		raw, err = readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return &table{columns: map[string]int{}}, nil
	}

	columns := make(map[string]int, len(raw[0]))
	for i, header := range raw[0] {
		columns[strings.ToLower(strings.TrimSpace(header))] = i
	}
	return &table{columns: columns, rows: raw[1:]}, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Curated exports occasionally have ragged rows; pad at access time
	// instead of failing the whole file.
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}
