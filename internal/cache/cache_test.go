package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/lesson-schedule/internal/model"
)

func setupTestDanceCache() (*DanceCache, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	return NewDanceCache(db, time.Minute), mock
}

func TestKey_LowerCasesAndTrims(t *testing.T) {
	assert.Equal(t, "dances:search:west coast", Key("  West Coast "))
}

func TestDanceCache_Get_Miss(t *testing.T) {
	c, mock := setupTestDanceCache()

	mock.ExpectGet("dances:search:wal").RedisNil()

	got, ok, err := c.Get(context.Background(), "Wal")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDanceCache_Get_Hit(t *testing.T) {
	c, mock := setupTestDanceCache()

	mock.ExpectGet("dances:search:wal").SetVal(`[{"id":"d1","name":"Waltz"}]`)

	got, ok, err := c.Get(context.Background(), "wal")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []model.Dance{{ID: "d1", Name: "Waltz"}}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDanceCache_Get_Error(t *testing.T) {
	c, mock := setupTestDanceCache()

	mock.ExpectGet("dances:search:wal").SetErr(errors.New("connection refused"))

	_, ok, err := c.Get(context.Background(), "wal")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDanceCache_Set(t *testing.T) {
	c, mock := setupTestDanceCache()

	mock.ExpectSet("dances:search:wal", `[{"id":"d1","name":"Waltz"}]`, time.Minute).SetVal("OK")
	mock.ExpectSet("dances:search:zz", `[]`, time.Minute).SetVal("OK")

	require.NoError(t, c.Set(context.Background(), "WAL", []model.Dance{{ID: "d1", Name: "Waltz"}}))
	require.NoError(t, c.Set(context.Background(), "zz", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDanceCache_Invalidate(t *testing.T) {
	c, mock := setupTestDanceCache()

	mock.ExpectScan(0, "dances:search:*", 100).SetVal([]string{"dances:search:wa"}, 7)
	mock.ExpectDel("dances:search:wa").SetVal(1)
	mock.ExpectScan(7, "dances:search:*", 100).SetVal([]string{}, 0)

	require.NoError(t, c.Invalidate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
