package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xiebiao/bookcatalog/internal/application/command"
	"github.com/xiebiao/bookcatalog/pkg/correlation"
	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
	"github.com/xiebiao/bookcatalog/pkg/metrics"
	"github.com/xiebiao/bookcatalog/pkg/mq"
)

func delivery(t *testing.T, routingKey, message string) mq.Delivery {
	t.Helper()
	body, err := mq.Envelope{QueueName: routingKey, Message: message}.Encode()
	require.NoError(t, err)
	return mq.Delivery{
		Exchange:   "book-service-exchange",
		RoutingKey: routingKey,
		Body:       body,
		Headers:    map[string]string{correlation.HeaderName: "cid-root"},
	}
}

// versionStore 最小的版本CAS存储：version必须等于存储版本+1
type versionStore struct {
	versions map[string]int
}

func (s *versionStore) handler(kind command.Kind) command.Handler {
	type payload struct {
		ID      string `json:"id"`
		Version int    `json:"version"`
	}
	return command.UpsertHandler(kind, func(_ context.Context, p *payload) error {
		if s.versions[p.ID] != p.Version-1 {
			return apperrors.ErrOptimisticLock
		}
		s.versions[p.ID] = p.Version
		return nil
	})
}

func newDispatcher(t *testing.T, handlers ...command.Handler) (*Dispatcher, *observer.ObservedLogs) {
	t.Helper()
	registry, err := command.NewRegistry(handlers...)
	require.NoError(t, err)
	core, logs := observer.New(zap.InfoLevel)
	return NewDispatcher(registry, zap.New(core)), logs
}

func TestDispatch_SuccessLogsConsumerIn(t *testing.T) {
	store := &versionStore{versions: map[string]int{}}
	d, logs := newDispatcher(t, store.handler(command.BookUpsert))

	err := d.Dispatch(context.Background(), delivery(t, "book.upsert", `{"id":"b1","version":1}`))
	require.NoError(t, err)
	assert.Equal(t, 1, store.versions["b1"])

	entries := logs.FilterMessage("consumer_in").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "book.upsert", fields["routing_key"])
	assert.Equal(t, "book-service-exchange", fields["exchange"])
	assert.Equal(t, "cid-root", fields["cid"])
	assert.Contains(t, fields["body"], "queue_name")
}

// 同一条消息投递两次：第二次版本冲突，跳过写入并Ack
func TestDispatch_RedeliveryIsAckedAsConflict(t *testing.T) {
	metrics.InitMetrics()
	store := &versionStore{versions: map[string]int{}}
	d, logs := newDispatcher(t, store.handler(command.BookUpsert))
	msg := delivery(t, "book.upsert", `{"id":"b2","version":1}`)

	conflicts := metrics.OptimisticLockConflictsTotal.WithLabelValues("book")
	before := testutil.ToFloat64(conflicts)

	require.NoError(t, d.Dispatch(context.Background(), msg))
	require.NoError(t, d.Dispatch(context.Background(), msg))

	assert.Equal(t, 1, store.versions["b2"])
	assert.Equal(t, float64(1), testutil.ToFloat64(conflicts)-before)
	assert.Equal(t, 1, logs.FilterMessage("版本冲突，写入已跳过").Len())
}

func TestDispatch_HandlerErrorIsReturned(t *testing.T) {
	boom := errors.New("db down")
	d, logs := newDispatcher(t, command.HandlerFunc{K: command.AuthorUpsert, Fn: func(context.Context, []byte) error {
		return boom
	}})

	err := d.Dispatch(context.Background(), delivery(t, "author.upsert", `{}`))
	assert.ErrorIs(t, err, boom)

	failures := logs.FilterMessage("消息处理失败，重新入队").All()
	require.Len(t, failures, 1)
	fields := failures[0].ContextMap()
	assert.Equal(t, "author.upsert", fields["routing_key"])
	assert.Contains(t, fields["error_cid"], "cid-root-")
}

func TestDispatch_UnknownRoutingKey(t *testing.T) {
	d, _ := newDispatcher(t, command.HandlerFunc{K: command.BookUpsert, Fn: func(context.Context, []byte) error { return nil }})

	assert.Error(t, d.Dispatch(context.Background(), delivery(t, "book.created", `{}`)))
	assert.Error(t, d.Dispatch(context.Background(), delivery(t, "author.upsert", `{}`)), "没有注册处理器")
	assert.Error(t, d.Dispatch(context.Background(), delivery(t, "external.book.upsert", `{}`)))
}

func TestDispatch_MalformedEnvelope(t *testing.T) {
	d, _ := newDispatcher(t, command.HandlerFunc{K: command.BookUpsert, Fn: func(context.Context, []byte) error { return nil }})

	err := d.Dispatch(context.Background(), mq.Delivery{RoutingKey: "book.upsert", Body: []byte("not json")})
	assert.True(t, apperrors.IsInvalidData(err))
}

func TestDispatch_QueueNameMustMatchRoutingKey(t *testing.T) {
	called := false
	d, logs := newDispatcher(t,
		command.HandlerFunc{K: command.BookUpsert, Fn: func(context.Context, []byte) error { called = true; return nil }},
		command.HandlerFunc{K: command.BookDeletion, Fn: func(context.Context, []byte) error { called = true; return nil }},
	)

	msg := delivery(t, "book.deletion", `{"id":"b5"}`)
	body, err := mq.Envelope{QueueName: "book.upsert", Message: `{"id":"b5"}`}.Encode()
	require.NoError(t, err)
	msg.Body = body

	err = d.Dispatch(context.Background(), msg)
	assert.True(t, apperrors.IsInvalidData(err))
	assert.False(t, called)
	assert.Equal(t, 1, logs.FilterMessage("消息处理失败，重新入队").Len())

	// 缺少queue_name同样拒绝
	body, err = mq.Envelope{Message: `{"id":"b5"}`}.Encode()
	require.NoError(t, err)
	msg.Body = body
	assert.True(t, apperrors.IsInvalidData(d.Dispatch(context.Background(), msg)))
	assert.False(t, called)
}

func TestDispatch_PassesMessageToHandler(t *testing.T) {
	var got json.RawMessage
	var gotCID string
	d, _ := newDispatcher(t, command.HandlerFunc{K: command.BranchDeletion, Fn: func(ctx context.Context, p []byte) error {
		got = p
		gotCID = correlation.FromContext(ctx)
		return nil
	}})

	require.NoError(t, d.Dispatch(context.Background(), delivery(t, "branch.deletion", `{"id":"x"}`)))
	assert.JSONEq(t, `{"id":"x"}`, string(got))
	assert.Equal(t, "cid-root", gotCID)
}

// fakeSource 用给定的消息调用handler
type fakeSource struct {
	messages []mq.Delivery
	results  []error
	drained  string
}

func (s *fakeSource) Consume(ctx context.Context, handler mq.Handler) error {
	for _, m := range s.messages {
		s.results = append(s.results, handler(ctx, m))
	}
	return nil
}

func (s *fakeSource) DrainOne(ctx context.Context, routingKey string, handler mq.Handler) error {
	s.drained = routingKey
	for _, m := range s.messages {
		if m.RoutingKey == routingKey {
			return handler(ctx, m)
		}
	}
	return mq.ErrNoMessage
}

func TestRunAndDrainOne(t *testing.T) {
	store := &versionStore{versions: map[string]int{}}
	d, _ := newDispatcher(t, store.handler(command.BookUpsert), store.handler(command.AuthorUpsert))

	src := &fakeSource{messages: []mq.Delivery{
		delivery(t, "author.upsert", `{"id":"a1","version":1}`),
		delivery(t, "book.upsert", `{"id":"b3","version":1}`),
		delivery(t, "book.upsert", `{"id":"b3","version":3}`),
	}}
	require.NoError(t, d.Run(context.Background(), src))
	assert.Equal(t, []error{nil, nil, nil}, src.results, "版本冲突也会Ack")
	assert.Equal(t, 1, store.versions["b3"])

	drain := &fakeSource{messages: []mq.Delivery{delivery(t, "book.upsert", `{"id":"b4","version":1}`)}}
	require.NoError(t, d.DrainOne(context.Background(), drain, "book.upsert"))
	assert.Equal(t, "book.upsert", drain.drained)
	assert.Equal(t, 1, store.versions["b4"])

	assert.ErrorIs(t, d.DrainOne(context.Background(), drain, "author.upsert"), mq.ErrNoMessage)
	assert.True(t, apperrors.IsInvalidData(d.DrainOne(context.Background(), drain, "nope")))
	assert.Equal(t, []string{"book.upsert", "author.upsert"}, d.RoutingKeys())
}
