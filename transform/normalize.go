package transform

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cevaris/ordered_map"
	"github.com/relloyd/retail-etl/failure"
	h "github.com/relloyd/retail-etl/helper"
	"github.com/relloyd/retail-etl/table"
)

var reNonCanonicalChars = regexp.MustCompile(`[^a-z0-9_]`)

// CanonicalColumnName lower-cases name, trims surrounding white space, replaces spaces with
// underscores and removes anything else outside [a-z0-9_].
func CanonicalColumnName(name string) string {
	n := strings.ToLower(name)
	n = strings.TrimSpace(n)
	n = strings.ReplaceAll(n, " ", "_")
	return reNonCanonicalChars.ReplaceAllString(n, "")
}

// NormalizeResult holds the renamed table and the ordered mapping of raw name to canonical name.
type NormalizeResult struct {
	Result
	Mapping *ordered_map.OrderedMap
}

// NormalizeColumns renames every column of t to its canonical name.
// Two raw names that share a canonical name, or a raw name with no canonical characters,
// cause a Schema failure; nothing is renamed in that case.
func NormalizeColumns(t *table.Table) (NormalizeResult, error) {
	mapping := ordered_map.NewOrderedMap()
	owners := ordered_map.NewOrderedMap() // canonical name -> []raw names
	var problems []string
	renamed := 0
	for _, raw := range t.Columns() {
		c := CanonicalColumnName(raw)
		if c == "" {
			problems = append(problems, fmt.Sprintf("column %q has no characters left after normalization", raw))
		}
		mapping.Set(raw, c)
		if c != raw {
			renamed++
		}
		prior, ok := owners.Get(c)
		if ok {
			owners.Set(c, append(prior.([]string), raw))
		} else {
			owners.Set(c, []string{raw})
		}
	}
	iter := owners.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		raws := kv.Value.([]string)
		if len(raws) > 1 && kv.Key.(string) != "" {
			problems = append(problems, fmt.Sprintf("columns %q all normalize to %q", raws, kv.Key))
		}
	}
	if len(problems) > 0 {
		return NormalizeResult{}, failure.New(failure.Schema, StageNormalize, "invalid column names: %v", strings.Join(problems, "; "))
	}
	out := t.Clone()
	if err := out.RenameColumns(mapping); err != nil {
		return NormalizeResult{}, failure.Wrap(failure.Schema, StageNormalize, err, "unable to rename columns")
	}
	fields := map[string]interface{}{"renamed": renamed, "columns": mapping.Len()}
	events := []Event{
		newEvent(StageNormalize, LevelInfo, fields, "normalized column names: %v", h.OrderedMapToTokens(mapping)),
	}
	return NormalizeResult{Result: Result{Table: out, Events: events}, Mapping: mapping}, nil
}
