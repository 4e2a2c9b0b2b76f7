package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"EVDemand/internal/domain/models"
	"EVDemand/internal/domain/repository"
)

// ClickHouseStore writes prediction records to a MergeTree table. Request and
// result are kept as JSON next to flat columns used for analytics.
type ClickHouseStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseStore creates the store. table may be database-qualified.
func NewClickHouseStore(db *sql.DB, table string) *ClickHouseStore {
	return &ClickHouseStore{db: db, table: table}
}

// Schema returns the DDL for the prediction table.
func (s *ClickHouseStore) Schema() []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id UUID,
	created_at DateTime64(3, 'UTC'),
	source LowCardinality(String),
	county LowCardinality(String),
	as_of_date String,
	current_total Float64,
	ok UInt8,
	predicted_total Float64,
	delta Float64,
	direction LowCardinality(String),
	error_kind LowCardinality(String),
	error_message String,
	model LowCardinality(String),
	request String,
	result String
) ENGINE = MergeTree ORDER BY (county, created_at)`, s.table)}
}

func (s *ClickHouseStore) Init(ctx context.Context) error {
	for _, stmt := range s.Schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s: %w", s.table, err)
		}
	}
	return nil
}

const insertColumns = "id, created_at, source, county, as_of_date, current_total, ok, predicted_total, delta, direction, error_kind, error_message, model, request, result"

func (s *ClickHouseStore) Record(ctx context.Context, rec *models.PredictionRecord) error {
	args, err := recordArgs(rec)
	if err != nil {
		return err
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", s.table, insertColumns)
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// recordArgs flattens rec into insert arguments, in insertColumns order.
func recordArgs(rec *models.PredictionRecord) ([]interface{}, error) {
	reqJSON, err := json.Marshal(rec.Request)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	resJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}

	var current float64
	if rec.Request.CurrentTotal != nil {
		current = *rec.Request.CurrentTotal
	}
	var (
		ok               uint8
		predicted, delta float64
		direction, model string
		errKind, errMsg  string
	)
	if p := rec.Result.Prediction; p != nil {
		ok = 1
		predicted, delta = p.PredictedTotal, p.Delta
		direction, model = p.Direction, p.Model
	}
	if e := rec.Result.Error; e != nil {
		errKind, errMsg = string(e.Kind), e.Message
	}

	return []interface{}{
		rec.ID,
		rec.CreatedAt,
		rec.Source,
		rec.Request.County,
		rec.Request.AsOfDate,
		current,
		ok,
		predicted,
		delta,
		direction,
		errKind,
		errMsg,
		model,
		string(reqJSON),
		string(resJSON),
	}, nil
}

// Recent returns the newest records, optionally for one county.
func (s *ClickHouseStore) Recent(ctx context.Context, county string, limit int) ([]*models.PredictionRecord, error) {
	q := fmt.Sprintf("SELECT toString(id), created_at, source, request, result FROM %s", s.table)
	args := []interface{}{}
	if county != "" {
		q += " WHERE county = ?"
		args = append(args, county)
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []*models.PredictionRecord
	for rows.Next() {
		var (
			id, source, reqJSON, resJSON string
			createdAt                    time.Time
		)
		if err := rows.Scan(&id, &createdAt, &source, &reqJSON, &resJSON); err != nil {
			return nil, err
		}
		rec, err := decodeRecord(id, source, createdAt, reqJSON, resJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func decodeRecord(id, source string, createdAt time.Time, reqJSON, resJSON string) (*models.PredictionRecord, error) {
	rec := &models.PredictionRecord{ID: id, Source: source, CreatedAt: createdAt.UTC()}
	if err := json.Unmarshal([]byte(reqJSON), &rec.Request); err != nil {
		return nil, fmt.Errorf("decode request %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(resJSON), &rec.Result); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return rec, nil
}

func (s *ClickHouseStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool belongs to pkg/clickhouse.Client.
func (s *ClickHouseStore) Close() error {
	return nil
}

var _ repository.PredictionStore = (*ClickHouseStore)(nil)
