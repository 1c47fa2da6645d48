package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "signals",
		User:        "u",
		Password:    "p",
		DialTimeout: 2 * time.Second,
		AsyncInsert: true,
	})
	assert.Equal(t, "clickhouse://u:p@ch:9000/signals?dial_timeout=2s&async_insert=1", dsn)

	dsn = buildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "d", UseHTTP: true})
	assert.Equal(t, "clickhouse+http://:@ch:8123/d", dsn)
}

func TestNewClient_RequiresHost(t *testing.T) {
	_, err := NewClient()
	require.Error(t, err)
}

func TestDecisionSchema(t *testing.T) {
	stmts := DecisionSchema("decisions")
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS decisions")
	assert.Contains(t, stmts[0], "entity_type")
}
