package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/albapepper/footiq/internal/baseline"
)

func TestStatements(t *testing.T) {
	stmts := Statements()
	assert.Contains(t, stmts, "health_check")
	assert.Contains(t, stmts[baseline.StmtRows], "FROM baselines")
	assert.Contains(t, stmts[baseline.StmtUpsert], "ON CONFLICT (league, season, position, metric)")
	assert.Contains(t, Schema, "PRIMARY KEY (league, season, position, metric)")
}
