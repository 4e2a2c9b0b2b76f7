package repository

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EVDemand/internal/domain/models"
)

func okRecord() *models.PredictionRecord {
	return &models.PredictionRecord{
		ID:     "3f1c6a0e-6a7b-4a39-9b87-0d7f2b1e9f10",
		Source: "http",
		Request: models.PredictionRequest{
			County:       "King",
			AsOfDate:     "2024-03-01",
			CurrentTotal: models.Total(1000),
			Lag1:         models.Total(900),
		},
		Result: models.PredictionResult{Prediction: &models.Prediction{
			PredictedTotal: 1100,
			CurrentTotal:   1000,
			Delta:          100,
			Direction:      models.DirectionUp,
			Model:          "linear@1",
		}},
		CreatedAt: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestRecordArgsSuccess(t *testing.T) {
	rec := okRecord()
	args, err := recordArgs(rec)
	require.NoError(t, err)
	require.Len(t, args, len(strings.Split(insertColumns, ",")))

	assert.Equal(t, rec.ID, args[0])
	assert.Equal(t, "King", args[3])
	assert.Equal(t, 1000.0, args[5])
	assert.Equal(t, uint8(1), args[6])
	assert.Equal(t, 1100.0, args[7])
	assert.Equal(t, models.DirectionUp, args[9])
	assert.Equal(t, "", args[10])
	assert.Equal(t, "linear@1", args[12])

	var req models.PredictionRequest
	require.NoError(t, json.Unmarshal([]byte(args[13].(string)), &req))
	assert.Equal(t, rec.Request, req)
}

func TestRecordArgsFailure(t *testing.T) {
	rec := okRecord()
	rec.Result = models.PredictionResult{Error: &models.PredictionError{Kind: models.ErrorKindValidation, Message: "bad date"}}
	rec.Request.CurrentTotal = nil

	args, err := recordArgs(rec)
	require.NoError(t, err)
	assert.Equal(t, 0.0, args[5])
	assert.Equal(t, uint8(0), args[6])
	assert.Equal(t, "validation", args[10])
	assert.Equal(t, "bad date", args[11])
}

func TestDecodeRecordRoundTrip(t *testing.T) {
	rec := okRecord()
	args, err := recordArgs(rec)
	require.NoError(t, err)

	got, err := decodeRecord(rec.ID, rec.Source, rec.CreatedAt, args[13].(string), args[14].(string))
	require.NoError(t, err)
	assert.Equal(t, rec.Request, got.Request)
	assert.Equal(t, rec.Result.Prediction.PredictedTotal, got.Result.Prediction.PredictedTotal)
	assert.True(t, got.CreatedAt.Equal(rec.CreatedAt))

	_, err = decodeRecord("x", "http", time.Now(), "{", "{}")
	assert.Error(t, err)
}

func TestSchemaUsesTable(t *testing.T) {
	s := NewClickHouseStore(nil, "analytics.ev_predictions")
	ddl := s.Schema()
	require.Len(t, ddl, 1)
	assert.Contains(t, ddl[0], "CREATE TABLE IF NOT EXISTS analytics.ev_predictions")
	assert.Contains(t, ddl[0], "ORDER BY (county, created_at)")
}
