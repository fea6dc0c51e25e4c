// Package models contains the GORM models for the retail schema.
//
// The schema keeps the integer primary keys of the source dataset so the
// seeded demo database and the MCP tool queries line up with the REST API.
// Monetary columns use decimal.Decimal to avoid float drift in aggregates.
package models
