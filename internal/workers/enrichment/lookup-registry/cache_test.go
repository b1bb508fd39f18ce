package lookupregistry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_GetMiss(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("lookup:cep:80020000").RedisNil()

	c := &resultCache{client: client, ttl: time.Hour}
	data, hit, err := c.get(context.Background(), "lookup:cep:80020000")

	require.NoError(t, err)
	assert.False(t, hit)
	assert.Nil(t, data)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultCache_GetHit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("lookup:cep:80020000").SetVal(`{"city":"Curitiba"}`)

	c := &resultCache{client: client, ttl: time.Hour}
	data, hit, err := c.get(context.Background(), "lookup:cep:80020000")

	require.NoError(t, err)
	assert.True(t, hit)
	assert.JSONEq(t, `{"city":"Curitiba"}`, string(data))
}

func TestResultCache_GetError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("lookup:cep:80020000").SetErr(errors.New("connection refused"))

	c := &resultCache{client: client, ttl: time.Hour}
	_, hit, err := c.get(context.Background(), "lookup:cep:80020000")

	assert.Error(t, err)
	assert.False(t, hit)
}

func TestResultCache_SetUsesTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	data := []byte(`{"city":"Curitiba"}`)
	mock.ExpectSet("lookup:cep:80020000", data, 2*time.Hour).SetVal("OK")

	c := &resultCache{client: client, ttl: 2 * time.Hour}
	require.NoError(t, c.set(context.Background(), "lookup:cep:80020000", data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResultCache_Disabled(t *testing.T) {
	c := &resultCache{}

	_, hit, err := c.get(context.Background(), "lookup:cpf:12345678901")
	assert.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.set(context.Background(), "lookup:cpf:12345678901", []byte(`{}`)))
}
