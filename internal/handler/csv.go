package handler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// column maps a JSON field of a list item to a CSV header label
type column struct {
	Key   string
	Label string
}

// writeCSV renders items through their JSON form so the CSV carries the same
// values as the JSON listing. Nested values are written as JSON.
func writeCSV(c echo.Context, resource string, items interface{}, columns []column) error {
	body, err := encodeCSV(items, columns)
	if err != nil {
		return fail(c, err)
	}

	filename := fmt.Sprintf("%s_%s.csv", resource, time.Now().UTC().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", body)
}

func encodeCSV(items interface{}, columns []column) ([]byte, error) {
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rows []map[string]interface{}
	if err := dec.Decode(&rows); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.Label
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			v, err := cell(row[col.Key])
			if err != nil {
				return nil, err
			}
			record[i] = v
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func cell(v interface{}) (string, error) {
	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		if v {
			return "true", nil
		}
		return "false", nil
	default:
		b, err := json.Marshal(v)
		return string(b), err
	}
}
