// Package mcpserver implements the three retail MCP tool servers: sales
// database access, supplier sourcing, and finance reporting. Tool output
// uses a compact column/row JSON envelope so large result sets stay cheap
// for the model to read.
package mcpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// resultSet is the success envelope: column names, row values and the row
// count. Message is only set when the query matched nothing.
type resultSet struct {
	Columns []string `json:"c"`
	Rows    [][]any  `json:"r"`
	Count   int      `json:"n"`
	Message string   `json:"msg,omitempty"`
}

// errorSet is the failure envelope. Query is only set by the raw sales
// query tool so the model can see what it sent.
type errorSet struct {
	Err     string   `json:"err"`
	Query   string   `json:"q,omitempty"`
	Columns []string `json:"c"`
	Rows    [][]any  `json:"r"`
	Count   int      `json:"n"`
}

func encodeRows(columns []string, rows [][]any) string {
	return mustJSON(resultSet{Columns: columns, Rows: rows, Count: len(rows)})
}

func encodeEmpty(message string) string {
	return mustJSON(resultSet{Columns: []string{}, Rows: [][]any{}, Message: message})
}

func encodeError(message string) string {
	return mustJSON(errorSet{Err: message, Columns: []string{}, Rows: [][]any{}})
}

func encodeQueryError(message, query string) string {
	return mustJSON(errorSet{Err: message, Query: query, Columns: []string{}, Rows: [][]any{}})
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return `{"err":"failed to encode result","c":[],"r":[],"n":0}`
	}
	return string(data)
}

// queryRows executes a raw SQL query and returns its columns and
// normalized row values.
func queryRows(ctx context.Context, db *gorm.DB, query string, args ...any) ([]string, [][]any, error) {
	rows, err := db.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var result [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, err
		}
		row := make([]any, len(columns))
		for i, value := range values {
			row[i] = normalizeValue(value)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, result, nil
}

// runEnvelope executes a query and encodes the compact envelope, using
// emptyMessage when no rows matched. Errors are returned for the caller
// to wrap in its tool-specific failure message.
func runEnvelope(ctx context.Context, db *gorm.DB, emptyMessage, query string, args ...any) (string, error) {
	columns, rows, err := queryRows(ctx, db, query, args...)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return encodeEmpty(emptyMessage), nil
	}
	return encodeRows(columns, rows), nil
}

// normalizeValue converts driver values into JSON-friendly ones.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case sql.NullString:
		if v.Valid {
			return v.String
		}
		return nil
	default:
		return value
	}
}
