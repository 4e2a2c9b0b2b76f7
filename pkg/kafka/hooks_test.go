package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookChainOrder(t *testing.T) {
	var calls []string
	mk := func(name string) ConsumerHook {
		return HookFuncs{
			Before: func(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
				calls = append(calls, "before:"+name)
				return ctx, km, append(data, name...), nil
			},
			After: func(context.Context, string, kafka.Message, []byte, error) {
				calls = append(calls, "after:"+name)
			},
		}
	}
	chain := NewHookChain(mk("a"), nil, mk("b"))

	ctx, km, data, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "xab", string(data))
	chain.AfterHandle(ctx, "t", km, data, nil)

	assert.Equal(t, []string{"before:a", "before:b", "after:b", "after:a"}, calls)
}

func TestHookChainRecoversPanic(t *testing.T) {
	var onErr error
	chain := NewHookChain(
		HookFuncs{Before: func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error) {
			panic("bad hook")
		}},
		HookFuncs{Err: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { onErr = err }},
	)

	_, _, _, err := chain.BeforeHandle(context.Background(), "t", kafka.Message{}, nil)
	var herr *HookError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, "ERR_PANIC", herr.Code)
	assert.Equal(t, err, onErr)

	assert.NotPanics(t, func() {
		NewHookChain(HookFuncs{After: func(context.Context, string, kafka.Message, []byte, error) { panic("x") }}).
			AfterHandle(context.Background(), "t", kafka.Message{}, nil, nil)
	})
}

func TestContextMetadata(t *testing.T) {
	msg := kafka.Message{Key: []byte("King"), Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	ctx := WithMessageKey(context.Background(), msg.Key)
	ctx = WithTraceID(ctx, ExtractTraceID(msg))

	assert.Equal(t, "King", MessageKey(ctx))
	assert.Equal(t, "abc", TraceID(ctx))
	assert.Equal(t, "", MessageKey(context.Background()))
	assert.Equal(t, "", TraceID(WithTraceID(context.Background(), "")))
}

func TestBackoffWithJitter(t *testing.T) {
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffWithJitter(100*time.Millisecond, time.Second, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
	assert.LessOrEqual(t, backoffWithJitter(0, 0, 1), 50*time.Millisecond)
}

func TestPermanent(t *testing.T) {
	assert.Nil(t, Permanent(nil))
	err := Permanent(errors.New("bad json"))
	assert.True(t, isPermanent(err))
	assert.True(t, isPermanent(errors.Join(errors.New("ctx"), err)))
	assert.False(t, isPermanent(errors.New("transient")))
}
