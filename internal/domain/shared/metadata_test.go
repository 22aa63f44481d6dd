package shared

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookcatalog/pkg/errors"
)

func TestNewMetadata(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("X", 3600))
	m := NewMetadata("alice", now)

	assert.Equal(t, 1, m.Version)
	assert.Equal(t, "alice", m.CreatedBy)
	assert.Equal(t, "alice", m.UpdatedBy)
	assert.Equal(t, time.UTC, m.CreatedAt.Location())
	assert.NoError(t, m.Validate())
}

func TestNextVersion(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := Metadata{Version: 3, CreatedAt: created, CreatedBy: "alice", UpdatedBy: "alice"}

	next := NextVersion(existing, "bob", time.Now())

	assert.Equal(t, 4, next.Version)
	assert.Equal(t, created, next.CreatedAt)
	assert.Equal(t, "alice", next.CreatedBy)
	assert.Equal(t, "bob", next.UpdatedBy)
}

func TestMetadata_PreserveCreation(t *testing.T) {
	created := time.Date(2024, 1, 1, 8, 0, 0, 0, time.FixedZone("CST", 8*3600))
	m := NewMetadata("bob", time.Now())
	m.Version = 4

	m.PreserveCreation(created, "alice")

	assert.True(t, created.Equal(m.CreatedAt))
	assert.Equal(t, time.UTC, m.CreatedAt.Location())
	assert.Equal(t, "alice", m.CreatedBy)
	assert.Equal(t, "bob", m.UpdatedBy)
	assert.Equal(t, 4, m.Version)
}

func TestMetadata_Validate(t *testing.T) {
	assert.Error(t, Metadata{Version: 0, UpdatedBy: "a"}.Validate())
	assert.Error(t, Metadata{Version: 1, UpdatedBy: " "}.Validate())
}

func TestDeletion_Unmarshal(t *testing.T) {
	id := uuid.New()

	var fromObject Deletion
	require.NoError(t, json.Unmarshal([]byte(`{"id":"`+id.String()+`"}`), &fromObject))
	assert.Equal(t, id, fromObject.ID)

	var fromString Deletion
	require.NoError(t, json.Unmarshal([]byte(`"`+id.String()+`"`), &fromString))
	assert.Equal(t, id, fromString.ID)

	var bad Deletion
	assert.Error(t, json.Unmarshal([]byte(`"not-a-uuid"`), &bad))
}

func TestDate_JSON(t *testing.T) {
	var d Date
	require.NoError(t, json.Unmarshal([]byte(`"2020-02-29"`), &d))
	assert.Equal(t, "2020-02-29", d.String())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2020-02-29"`, string(out))

	var fromRFC Date
	require.NoError(t, json.Unmarshal([]byte(`"2020-02-29T23:10:00Z"`), &fromRFC))
	assert.Equal(t, d, fromRFC)

	var empty Date
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.True(t, empty.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"29/02/2020"`), &d))
}

func TestRevise(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := Metadata{Version: 2, CreatedAt: created, CreatedBy: "alice", UpdatedBy: "alice"}

	next, err := Revise(stored, 2, "bob", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, next.Version)
	assert.Equal(t, "alice", next.CreatedBy)
	assert.Equal(t, "bob", next.UpdatedBy)

	_, err = Revise(stored, 1, "bob", time.Now())
	assert.True(t, apperrors.IsOptimisticLock(err))

	_, err = Revise(stored, 0, "bob", time.Now())
	assert.True(t, apperrors.IsInvalidData(err))
}
