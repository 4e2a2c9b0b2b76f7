package model

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	domsvc "EVDemand/internal/domain/service"
	"EVDemand/internal/service/cache"
	applogger "EVDemand/pkg/logger"
)

// Cached memoizes model outputs by the exact input rows. Cache failures are
// logged and fall through to the wrapped model.
type Cached struct {
	next  domsvc.Model
	cache cache.BytesCache
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCached(next domsvc.Model, c cache.BytesCache, ttl time.Duration, l *applogger.Logger) *Cached {
	if l == nil {
		l = applogger.Nop()
	}
	return &Cached{next: next, cache: c, ttl: ttl, l: l}
}

func (m *Cached) Name() string { return m.next.Name() }

func (m *Cached) Predict(ctx context.Context, rows [][]float64) ([]float64, error) {
	key := m.key(rows)

	if b, ok, err := m.cache.GetBytes(ctx, key); err != nil {
		m.l.Warn("model cache get failed", applogger.Error(err))
	} else if ok {
		var out []float64
		if err := json.Unmarshal(b, &out); err == nil && len(out) == len(rows) {
			return out, nil
		}
	}

	out, err := m.next.Predict(ctx, rows)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		if err := m.cache.SetBytes(ctx, key, b, m.ttl); err != nil {
			m.l.Warn("model cache set failed", applogger.Error(err))
		}
	}
	return out, nil
}

// key hashes the model name and the IEEE-754 bits of every value.
func (m *Cached) key(rows [][]float64) string {
	h := xxhash.New()
	_, _ = h.WriteString(m.next.Name())
	var buf [8]byte
	for _, r := range rows {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(r)))
		_, _ = h.Write(buf[:])
		for _, v := range r {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = h.Write(buf[:])
		}
	}
	return "evpred:" + strconv.FormatUint(h.Sum64(), 16)
}

var _ domsvc.Model = (*Cached)(nil)
