package db

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search. Fields holds source
// fields only; numbers decode as float64.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields Document
}
