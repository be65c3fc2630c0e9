package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DSN(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "host=localhost port=5432 user=postgres password=postgres dbname=lessons sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://u:p@db:5432/x"
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())
}

func TestSchema_DeclaresOccurrenceKey(t *testing.T) {
	assert.Contains(t, schema, "UNIQUE (event_type_id, date, start_time)")
	assert.Equal(t, 6, strings.Count(schema, "CREATE TABLE IF NOT EXISTS"))
}

func TestSchema_LessonFactNeedsADanceReference(t *testing.T) {
	assert.Contains(t, schema, "CHECK (dance_id IS NOT NULL OR dance_name IS NOT NULL)")
	assert.NotContains(t, schema, "(dance_id IS NULL) <> (dance_name IS NULL)")
}
