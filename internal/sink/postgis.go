package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/twpayne/go-geom/encoding/wkb"

	"github.com/mlmgis/isochrones/internal/feature"
)

// GeometryColumn is the name of the geometry column in PostGIS tables.
const GeometryColumn = "geom"

// DB is the subset of *pgxpool.Pool used by the PostGIS sink.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// PostGIS is a destination that writes features into a PostGIS table.
// The table is created when missing and rows are appended.
type PostGIS struct {
	db    DB
	table pgx.Identifier
}

// NewPostGIS creates a PostGIS destination for table, which may be
// schema-qualified ("schema.table").
func NewPostGIS(db DB, table string) (*PostGIS, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, fmt.Errorf("%w: empty table name", ErrSink)
	}
	return &PostGIS{db: db, table: pgx.Identifier(strings.Split(table, "."))}, nil
}

func (d *PostGIS) String() string {
	return "postgis:" + strings.Join(d.table, ".")
}

// Open creates the table for schema.
func (d *PostGIS) Open(ctx context.Context, schema feature.Schema) (Sink, error) {
	if _, err := d.db.Exec(ctx, CreateTableSQL(d.table, schema)); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrSink, d, err)
	}
	return &postGISSink{
		db:     d.db,
		schema: schema,
		insert: InsertSQL(d.table, schema),
	}, nil
}

// CreateTableSQL builds the DDL for a table holding features of schema.
func CreateTableSQL(table pgx.Identifier, schema feature.Schema) string {
	cols := make([]string, 0, len(schema.Fields)+2)
	cols = append(cols, "fid bigserial PRIMARY KEY")
	for _, f := range schema.Fields {
		cols = append(cols, pgx.Identifier{f.Name}.Sanitize()+" "+columnType(f.Type))
	}
	cols = append(cols, fmt.Sprintf("%s geometry(%s, 4326)", GeometryColumn, schema.Geometry))

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", table.Sanitize(), strings.Join(cols, ",\n\t"))
}

// InsertSQL builds the parameterized insert for one feature of schema. The
// geometry is the last parameter, passed as WKB.
func InsertSQL(table pgx.Identifier, schema feature.Schema) string {
	names := make([]string, 0, len(schema.Fields)+1)
	params := make([]string, 0, len(schema.Fields)+1)
	for i, f := range schema.Fields {
		names = append(names, pgx.Identifier{f.Name}.Sanitize())
		params = append(params, fmt.Sprintf("$%d", i+1))
	}
	names = append(names, GeometryColumn)
	params = append(params, fmt.Sprintf("ST_SetSRID(ST_GeomFromWKB($%d), 4326)", len(schema.Fields)+1))

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table.Sanitize(), strings.Join(names, ", "), strings.Join(params, ", "))
}

func columnType(t feature.FieldType) string {
	switch t {
	case feature.FieldInteger:
		return "bigint"
	case feature.FieldFloat:
		return "double precision"
	default:
		return "text"
	}
}

type postGISSink struct {
	db     DB
	schema feature.Schema
	insert string
}

func (s *postGISSink) AddFeatures(ctx context.Context, features []*feature.Feature) error {
	if len(features) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range features {
		if f.GeometryType() != s.schema.Geometry {
			return fmt.Errorf("%w: %s feature written to %s table", ErrSink, f.GeometryType(), s.schema.Geometry)
		}
		g, err := wkb.Marshal(f.Geometry, wkb.NDR)
		if err != nil {
			return fmt.Errorf("%w: encoding geometry: %v", ErrSink, err)
		}
		args := append(s.schema.Row(f), g)
		batch.Queue(s.insert, args...)
	}

	results := s.db.SendBatch(ctx, batch)
	for range features {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("%w: inserting feature: %v", ErrSink, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("%w: inserting features: %v", ErrSink, err)
	}
	return nil
}

// Close is a no-op; the pool is owned by the caller.
func (s *postGISSink) Close() error {
	return nil
}
