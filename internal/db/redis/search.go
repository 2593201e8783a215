package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/itemdex/internal/db"
	"github.com/kailas-cloud/itemdex/internal/domain/search/query"
)

// Search compiles q into an FT.SEARCH query string and runs it with scores.
func (s *Store) Search(ctx context.Context, index string, q *query.Query) (*db.SearchResult, error) {
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q == nil {
		return nil, fmt.Errorf("query is required")
	}

	size := q.Size
	if size <= 0 {
		size = query.DefaultSize
	}

	args := []string{index, buildQuery(q), "WITHSCORES"}
	args = append(args, buildSortArgs(q)...)
	args = append(args,
		"LIMIT", "0", strconv.Itoa(size),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseScoredResult(raw)
}

// --- Query building ---

// buildQuery renders the scoring match and filters as one intersection.
func buildQuery(q *query.Query) string {
	var parts []string

	if q.Match != nil {
		if m := buildMatch(q.Match); m != "" {
			parts = append(parts, m)
		}
	}
	for _, cond := range q.Filters {
		parts = append(parts, buildCondition(cond))
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// buildMatch renders a union over fields of a union over fuzzy terms.
// Field boosts become $weight query attributes.
func buildMatch(m *query.MultiMatch) string {
	if len(m.Terms) == 0 || len(m.Fields) == 0 {
		return ""
	}

	terms := make([]string, 0, len(m.Terms))
	for _, t := range m.Terms {
		terms = append(terms, fuzzyTerm(t))
	}
	termExpr := strings.Join(terms, "|")

	clauses := make([]string, 0, len(m.Fields))
	for _, f := range m.Fields {
		clause := fmt.Sprintf("@%s:(%s)", f.Field, termExpr)
		if f.Boost > 0 && f.Boost != 1 {
			clause = fmt.Sprintf("(%s) => { $weight: %s; }", clause, strconv.FormatFloat(f.Boost, 'f', -1, 64))
		}
		clauses = append(clauses, clause)
	}
	return "(" + strings.Join(clauses, " | ") + ")"
}

// fuzzyTerm wraps the term in one pair of % per allowed edit.
func fuzzyTerm(t query.Term) string {
	escaped := escapeQuery(t.Text)
	if t.Fuzziness <= 0 {
		return escaped
	}
	pct := strings.Repeat("%", min(t.Fuzziness, 3))
	return pct + escaped + pct
}

func buildCondition(cond query.Condition) string {
	switch cond.Kind {
	case query.KindTerm:
		return buildTagFilter(cond.Field, cond.Value)
	case query.KindEquals:
		return fmt.Sprintf("@%s:[%d %d]", cond.Field, cond.Int, cond.Int)
	case query.KindRange:
		return buildNumericFilter(cond.Field, cond.Range)
	default:
		return ""
	}
}

func buildTagFilter(key, value string) string {
	escaped := tagEscaper.Replace(value)
	return fmt.Sprintf("@%s:{%s}", key, escaped)
}

func buildNumericFilter(key string, r query.Range) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.GTE != nil {
		minBound = strconv.Itoa(*r.GTE)
	}
	if r.LTE != nil {
		maxBound = strconv.Itoa(*r.LTE)
	}

	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

// buildSortArgs maps the sort to a single SORTBY. FT.SEARCH ranks by score
// by default, so a leading _score needs no SORTBY unless every document
// scores the same (match-all), in which case the next key applies.
func buildSortArgs(q *query.Query) []string {
	for _, sf := range q.Sort {
		if sf.Field == query.FieldScore {
			if !q.IsMatchAll() {
				return nil
			}
			continue
		}
		dir := "ASC"
		if sf.Desc {
			dir = "DESC"
		}
		return []string{"SORTBY", sf.Field, dir}
	}
	return nil
}

// --- Result parsing ---

func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, min(int(total), len(raw)/3))
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		doc, err := parseJSONFields(fields)
		if err != nil {
			return nil, fmt.Errorf("parse document %s: %w", key, err)
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: doc,
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseJSONFields decodes the "$" root document returned for JSON indexes.
func parseJSONFields(fields []rueidis.RedisMessage) (db.Document, error) {
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil || name != "$" {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			return nil, err
		}
		var doc db.Document
		if err := json.Unmarshal([]byte(value), &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	return db.Document{}, nil
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
