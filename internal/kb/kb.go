// Package kb answers product questions from the FAQ knowledge base.
package kb

import (
	"encoding/json"
	"log"
	"os"
	"strings"
)

// Lookup is the knowledge-base collaborator: free-text query in, best answer
// out, ok=false when nothing matches.
type Lookup interface {
	Search(query string) (string, bool)
}

// Entry is one FAQ question/answer pair.
type Entry struct {
	Q string `json:"q"`
	A string `json:"a"`
}

// JSONLookup serves substring matches over a JSON FAQ file. A vector-backed
// implementation can replace it behind the same interface.
type JSONLookup struct {
	entries []Entry
}

// seedEntries keep product Q&A functional when no FAQ file is configured.
var seedEntries = []Entry{
	{Q: "return policy", A: "You can return items within 30 days in original condition."},
	{Q: "bluetooth headphones battery", A: "Our BT headphones last up to 30 hours per charge."},
	{Q: "shipping times", A: "Standard shipping takes 3–5 business days; expedited options available."},
}

// NewJSONLookup loads the FAQ file, falling back to the seed entries when the
// file is missing or malformed.
func NewJSONLookup(path string) *JSONLookup {
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var entries []Entry
			if err := json.Unmarshal(data, &entries); err == nil && len(entries) > 0 {
				return &JSONLookup{entries: entries}
			}
			log.Printf("[kb] malformed FAQ file %s, using seed entries", path)
		} else {
			log.Printf("[kb] cannot read FAQ file %s, using seed entries: %v", path, err)
		}
	}
	return &JSONLookup{entries: seedEntries}
}

// Search matches when either string contains the other, case-insensitively.
func (l *JSONLookup) Search(query string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}
	for _, entry := range l.entries {
		key := strings.ToLower(entry.Q)
		if strings.Contains(q, key) || strings.Contains(key, q) {
			return entry.A, true
		}
	}
	return "", false
}
