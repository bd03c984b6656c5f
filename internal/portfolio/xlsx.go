package portfolio

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/tryinhard1080/orion-portfolio-waste-analytics-sub001/internal/model"
)

// servicesSheet is the optional second sheet holding service configurations.
const servicesSheet = "services"

// loadXLSX reads the property table from the named sheet (or the first sheet
// when sheet is empty) and service configurations from the "services" sheet
// when present. Row 0 of each sheet is a header row.
func loadXLSX(path, sheet string) (*Lookup, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "portfolio: open xlsx")
	}

	propSheet, err := getSheet(f, sheet)
	if err != nil {
		return nil, err
	}

	ordered, byID, err := parseProperties(propSheet)
	if err != nil {
		return nil, err
	}

	if svcSheet, ok := f.Sheet[servicesSheet]; ok {
		if err := attachServices(byID, svcSheet); err != nil {
			return nil, err
		}
	}

	flat := make([]model.Property, 0, len(ordered))
	for _, p := range ordered {
		flat = append(flat, *p)
	}
	return NewLookup(flat)
}

func getSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, eris.Errorf("portfolio: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("portfolio: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

// Property sheet columns, by header name.
// property_id | name | unit_count | address | jurisdiction
// Sheet order is preserved so runs produce stable output.
func parseProperties(sheet *xlsx.Sheet) ([]*model.Property, map[string]*model.Property, error) {
	if len(sheet.Rows) < 2 {
		return nil, nil, eris.Errorf("portfolio: sheet %q has no data rows", sheet.Name)
	}

	cols := headerIndex(sheet.Rows[0])
	idCol, ok := cols["property_id"]
	if !ok {
		return nil, nil, eris.Errorf("portfolio: sheet %q missing property_id column", sheet.Name)
	}

	byID := make(map[string]*model.Property)
	var ordered []*model.Property
	for i, row := range sheet.Rows[1:] {
		id := strings.TrimSpace(cellAt(row, idCol))
		if id == "" {
			continue // blank spacer rows are common in hand-maintained workbooks
		}
		units, err := intCell(row, cols, "unit_count")
		if err != nil {
			return nil, nil, eris.Wrapf(err, "portfolio: row %d", i+2)
		}
		p := &model.Property{
			PropertyID:   id,
			Name:         cellNamed(row, cols, "name"),
			UnitCount:    units,
			Address:      cellNamed(row, cols, "address"),
			Jurisdiction: cellNamed(row, cols, "jurisdiction"),
		}
		byID[id] = p
		ordered = append(ordered, p)
	}
	return ordered, byID, nil
}

// Services sheet columns, by header name.
// property_id | container_type | container_size | container_count | pickups_per_week | on_call | vendor
func attachServices(props map[string]*model.Property, sheet *xlsx.Sheet) error {
	if len(sheet.Rows) < 2 {
		return nil
	}
	cols := headerIndex(sheet.Rows[0])
	if _, ok := cols["property_id"]; !ok {
		return eris.Errorf("portfolio: sheet %q missing property_id column", sheet.Name)
	}

	for i, row := range sheet.Rows[1:] {
		id := cellNamed(row, cols, "property_id")
		if id == "" {
			continue
		}
		p, ok := props[id]
		if !ok {
			return eris.Errorf("portfolio: services row %d references unknown property %s", i+2, id)
		}

		size, err := floatCell(row, cols, "container_size")
		if err != nil {
			return eris.Wrapf(err, "portfolio: services row %d", i+2)
		}
		count, err := intCell(row, cols, "container_count")
		if err != nil {
			return eris.Wrapf(err, "portfolio: services row %d", i+2)
		}
		pickups, err := floatCell(row, cols, "pickups_per_week")
		if err != nil {
			return eris.Wrapf(err, "portfolio: services row %d", i+2)
		}

		p.Services = append(p.Services, model.ServiceConfiguration{
			ContainerType:  model.ContainerType(cellNamed(row, cols, "container_type")),
			ContainerSize:  size,
			ContainerCount: count,
			PickupsPerWeek: pickups,
			OnCall:         parseBool(cellNamed(row, cols, "on_call")),
			Vendor:         cellNamed(row, cols, "vendor"),
		})
	}
	return nil
}

func headerIndex(row *xlsx.Row) map[string]int {
	cols := make(map[string]int, len(row.Cells))
	for j, cell := range row.Cells {
		key := strings.ToLower(strings.TrimSpace(cell.String()))
		if key != "" {
			cols[key] = j
		}
	}
	return cols
}

// cellNamed reads a cell by header name; a column absent from the sheet
// reads as empty.
func cellNamed(row *xlsx.Row, cols map[string]int, key string) string {
	col, ok := cols[key]
	if !ok {
		return ""
	}
	return cellAt(row, col)
}

func cellAt(row *xlsx.Row, col int) string {
	if col < 0 || col >= len(row.Cells) {
		return ""
	}
	return strings.TrimSpace(row.Cells[col].String())
}

func intCell(row *xlsx.Row, cols map[string]int, key string) (int, error) {
	col, ok := cols[key]
	if !ok {
		return 0, nil
	}
	raw := cellAt(row, col)
	if raw == "" {
		return 0, nil
	}
	// Excel renders integers as floats ("312.0") depending on cell format.
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, eris.Errorf("column %s: %q is not a number", key, raw)
	}
	return int(f), nil
}

func floatCell(row *xlsx.Row, cols map[string]int, key string) (float64, error) {
	col, ok := cols[key]
	if !ok {
		return 0, nil
	}
	raw := cellAt(row, col)
	if raw == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, eris.Errorf("column %s: %q is not a number", key, raw)
	}
	return f, nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true
	}
	return false
}
