package command

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

func TestKind_RoutingKeys(t *testing.T) {
	assert.Equal(t, "book.upsert", BookUpsert.RoutingKey())
	assert.Equal(t, "physical_exemplar.deletion", ExemplarDeletion.RoutingKey())
	assert.Equal(t, "external.book_category.upsert", CategoryUpsert.ExternalRoutingKey())
	assert.Len(t, All(), 10)
	assert.Len(t, RoutingKeys(), 10)
	assert.Equal(t, "", Kind(0).RoutingKey())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestParseKind_RejectsUnknownAndExternal(t *testing.T) {
	_, ok := ParseKind("external.book.upsert")
	assert.False(t, ok)
	_, ok = ParseKind("book.created")
	assert.False(t, ok)
	_, ok = ParseKind("")
	assert.False(t, ok)
	assert.True(t, IsExternal("external.book.upsert"))
}

// 路由键与种类一一对应
func TestKind_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.SampledFrom(All()).Draw(t, "kind")

		parsed, ok := ParseKind(k.RoutingKey())
		if !ok || parsed != k {
			t.Fatalf("round trip failed for %s", k)
		}
		if !strings.HasSuffix(k.ExternalRoutingKey(), k.RoutingKey()) {
			t.Fatalf("external key %s does not wrap %s", k.ExternalRoutingKey(), k.RoutingKey())
		}
		if _, ok := ParseKind(k.ExternalRoutingKey()); ok {
			t.Fatalf("external key must not parse as internal command")
		}
	})
}

// 任意字符串要么解析为已知种类，要么被拒绝
func TestParseKind_ArbitraryStrings(t *testing.T) {
	known := map[string]bool{}
	for _, k := range RoutingKeys() {
		known[k] = true
	}
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "routing_key")
		k, ok := ParseKind(s)
		if ok != known[s] {
			t.Fatalf("ParseKind(%q)=%v", s, ok)
		}
		if ok && k.RoutingKey() != s {
			t.Fatalf("ParseKind(%q) returned %s", s, k)
		}
	})
}

func TestRegistry(t *testing.T) {
	noop := func(context.Context, []byte) error { return nil }

	r, err := NewRegistry(
		HandlerFunc{K: BranchUpsert, Fn: noop},
		HandlerFunc{K: BookUpsert, Fn: noop},
	)
	require.NoError(t, err)

	_, ok := r.Lookup(BookUpsert)
	assert.True(t, ok)
	_, ok = r.Lookup(AuthorUpsert)
	assert.False(t, ok)
	assert.Equal(t, []string{"book.upsert", "branch.upsert"}, r.RoutingKeys())

	_, err = NewRegistry(HandlerFunc{K: BookUpsert, Fn: noop}, HandlerFunc{K: BookUpsert, Fn: noop})
	assert.Error(t, err)

	_, err = NewRegistry(HandlerFunc{K: Kind(42), Fn: noop})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	p, err := Decode[payload]([]byte(`{"name":"Central"}`))
	require.NoError(t, err)
	assert.Equal(t, "Central", p.Name)

	_, err = Decode[payload]([]byte(`{"name":`))
	assert.True(t, apperrors.IsInvalidData(err))
}

func TestUpsertHandler_DecodesPayload(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	var got *payload
	h := UpsertHandler(AuthorUpsert, func(_ context.Context, p *payload) error {
		got = p
		return nil
	})

	assert.Equal(t, AuthorUpsert, h.Kind())
	require.NoError(t, h.Handle(context.Background(), []byte(`{"name":"Le Guin"}`)))
	require.NotNil(t, got)
	assert.Equal(t, "Le Guin", got.Name)

	err := h.Handle(context.Background(), []byte(`[`))
	assert.True(t, apperrors.IsInvalidData(err))
}

func TestDeletionHandler_AcceptsBothFormats(t *testing.T) {
	id := uuid.New()
	var got []uuid.UUID
	h := DeletionHandler(BookDeletion, func(_ context.Context, id uuid.UUID) error {
		got = append(got, id)
		return nil
	})

	require.NoError(t, h.Handle(context.Background(), []byte(`{"id":"`+id.String()+`"}`)))
	require.NoError(t, h.Handle(context.Background(), []byte(`"`+id.String()+`"`)))
	assert.Equal(t, []uuid.UUID{id, id}, got)

	err := h.Handle(context.Background(), []byte(`{}`))
	assert.True(t, apperrors.IsInvalidData(err))
}
