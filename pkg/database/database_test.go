package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/serc-portal/recruitment-api/pkg/config"
)

func TestConnectionStrings(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5433, User: "serc", Password: "p@ss word", Name: "portal"}

	assert.Equal(t, "host=db port=5433 user=serc password=p@ss word dbname=portal sslmode=disable", DSN(cfg))
	assert.Equal(t, "postgres://serc:p%40ss%20word@db:5433/portal?sslmode=disable", URL(cfg))

	cfg.SSLMode = "require"
	assert.Contains(t, URL(cfg), "sslmode=require")
}
