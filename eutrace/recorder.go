// Package eutrace records event unit and DMA activity into a SQLite
// database for post-run inspection.
package eutrace

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/structs"

	// SQLite driver for the trace database.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// Recorder buffers typed rows per table and writes them to SQLite in
// batches. Tables are created from sample structs; one column per
// exported field.
type Recorder struct {
	db        *sql.DB
	filename  string
	tables    map[string]*table
	batchSize int
}

type table struct {
	structType reflect.Type
	columns    []string
	entries    []any
}

// NewRecorder opens a trace database at path (".sqlite3" is appended).
// An empty path picks a unique name.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		path = "magia_eu_trace_" + xid.New().String()
	}
	filename := path + ".sqlite3"

	if _, err := os.Stat(filename); err == nil {
		return nil, fmt.Errorf("eutrace: %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return nil, fmt.Errorf("eutrace: opening %s: %w", filename, err)
	}

	r := &Recorder{
		db:        db,
		filename:  filename,
		tables:    make(map[string]*table),
		batchSize: 10000,
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

// Filename returns the path of the database file.
func (r *Recorder) Filename() string {
	return r.filename
}

// CreateTable creates a table shaped after the sample struct's exported
// fields. Creating the same table twice panics, as does a sample with
// non-scalar fields.
func (r *Recorder) CreateTable(name string, sample any) {
	if _, ok := r.tables[name]; ok {
		panic(fmt.Sprintf("eutrace: table %s already exists", name))
	}

	columns := structs.Names(sample)
	for _, f := range structs.Fields(sample) {
		if !scalarKind(reflect.ValueOf(f.Value()).Kind()) {
			panic(fmt.Sprintf(
				"eutrace: field %s of table %s is not a scalar",
				f.Name(), name))
		}
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (%s);",
		name, strings.Join(columns, ", "))
	if _, err := r.db.Exec(stmt); err != nil {
		panic(err)
	}

	r.tables[name] = &table{
		structType: reflect.TypeOf(sample),
		columns:    columns,
	}
}

func scalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16,
		reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16,
		reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}

// Insert buffers one row for the named table. The row must have the
// type the table was created with.
func (r *Recorder) Insert(name string, entry any) {
	t, ok := r.tables[name]
	if !ok {
		panic(fmt.Sprintf("eutrace: table %s does not exist", name))
	}
	if reflect.TypeOf(entry) != t.structType {
		panic(fmt.Sprintf("eutrace: wrong row type for table %s", name))
	}

	t.entries = append(t.entries, entry)
	if len(t.entries) >= r.batchSize {
		r.flushTable(name, t)
	}
}

// ListTables returns the names of all created tables.
func (r *Recorder) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}
	return names
}

// Flush writes all buffered rows to the database.
func (r *Recorder) Flush() {
	for name, t := range r.tables {
		r.flushTable(name, t)
	}
}

// Close flushes and closes the database.
func (r *Recorder) Close() error {
	r.Flush()
	return r.db.Close()
}

func (r *Recorder) flushTable(name string, t *table) {
	if len(t.entries) == 0 {
		return
	}

	placeholders := strings.TrimSuffix(
		strings.Repeat("?, ", len(t.columns)), ", ")
	stmt := fmt.Sprintf("INSERT INTO %s VALUES (%s);", name, placeholders)

	tx, err := r.db.Begin()
	if err != nil {
		panic(err)
	}

	prepared, err := tx.Prepare(stmt)
	if err != nil {
		panic(err)
	}

	for _, entry := range t.entries {
		if _, err := prepared.Exec(structs.Values(entry)...); err != nil {
			panic(err)
		}
	}

	if err := tx.Commit(); err != nil {
		panic(err)
	}

	t.entries = t.entries[:0]
}
