package postgres

import (
	"strings"
	"time"
)

// maxBatchRows bounds the rows of one multi-row statement. Postgres accepts at most
// 65535 bind parameters per statement; the widest table here has 21 columns.
const maxBatchRows = 1000

// batches splits items into consecutive slices of at most size elements.
func batches[T any](items []T, size int) [][]T {
	var out [][]T
	for len(items) > size {
		out = append(out, items[:size:size])
		items = items[size:]
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}

// dedupe keeps the last occurrence of every key, in first-seen order.
// A multi-row "on conflict do update" fails when one statement touches the same row twice.
func dedupe[T any](items []T, key func(T) string) []T {
	if len(items) < 2 {
		return items
	}

	index := make(map[string]int, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if i, ok := index[k]; ok {
			out[i] = item
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}

	return out
}

func excludedSet(columns []string) string {
	set := make([]string, 0, len(columns))
	for _, c := range columns {
		set = append(set, c+" = excluded."+c)
	}
	return strings.Join(set, ", ")
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
