package duckdb

import "github.com/tinytelemetry/awrhist/internal/model"

// Type aliases re-export model interfaces for consumers that import duckdb.
type RowWriter = model.RowWriter
type RowQuerier = model.RowQuerier
type SchemaQuerier = model.SchemaQuerier
type ReadAPI = model.ReadAPI

var _ ReadAPI = (*Store)(nil)
var _ RowWriter = (*Store)(nil)
