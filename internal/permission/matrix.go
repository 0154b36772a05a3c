package permission

import "fmt"

// Matrix holds the default level of every permission for every role.
type Matrix struct {
	catalog *Catalog
	rows    map[Role]Levels
}

// NewMatrix validates table against catalog. Each known role must have a row,
// each row must define every catalog id (LevelNone for no access), and the
// admin row must be full everywhere.
func NewMatrix(catalog *Catalog, table map[Role]Levels) (*Matrix, error) {
	rows := make(map[Role]Levels, len(table))

	for role, row := range table {
		if !role.Valid() {
			return nil, fmt.Errorf("matrix: unknown role %q", role)
		}
		for id, l := range row {
			if !catalog.Has(id) {
				return nil, fmt.Errorf("matrix: role %q: %w", role, &UnknownPermissionError{ID: id})
			}
			if !l.Valid() {
				return nil, fmt.Errorf("matrix: role %q: invalid level for %q", role, id)
			}
		}
		rows[role] = row.Clone()
	}

	for _, role := range Roles {
		row, ok := rows[role]
		if !ok {
			return nil, fmt.Errorf("matrix: missing row for role %q", role)
		}
		for _, id := range catalog.IDs() {
			l, ok := row[id]
			if !ok {
				return nil, fmt.Errorf("matrix: role %q does not define %q", role, id)
			}
			if role == RoleAdmin && l != LevelFull {
				return nil, fmt.Errorf("matrix: admin must hold full on %q, got %s", id, l)
			}
		}
	}

	return &Matrix{catalog: catalog, rows: rows}, nil
}

func MustMatrix(catalog *Catalog, table map[Role]Levels) *Matrix {
	m, err := NewMatrix(catalog, table)
	if err != nil {
		panic("permission " + err.Error())
	}
	return m
}

// Defaults returns a fresh, complete copy of the role's default levels.
func (m *Matrix) Defaults(role Role) (Levels, error) {
	row, ok := m.rows[role]
	if !ok {
		return nil, fmt.Errorf("defaults: unknown role %q", role)
	}
	return row.Clone(), nil
}

// DefaultIDs returns the ids the role holds by default, flattened in catalog
// order. Level information is dropped.
func (m *Matrix) DefaultIDs(role Role) ([]string, error) {
	row, err := m.Defaults(role)
	if err != nil {
		return nil, err
	}
	return row.Granted(m.catalog.IDs()), nil
}

func (m *Matrix) Catalog() *Catalog {
	return m.catalog
}
