package ipo

import (
	"strings"
	"time"

	"bistscrapper/utils"

	"golang.org/x/exp/slices"
)

// Override is a hand-maintained record that replaces whatever the sources
// say about the same company. Aliases catch the shorter names a listing
// may use.
type Override struct {
	Record  Record
	Aliases []string
}

// OverrideFromRaw builds an override from loosely typed fields, with the
// aliases under the "aliases" key.
func OverrideFromRaw(fields map[string]any, now time.Time) Override {
	o := Override{Record: AssembleRaw(fields, now)}
	o.Aliases = list(fields, "aliases")
	return o
}

func (o Override) keys() []string {
	keys := []string{utils.FoldKey(o.Record.Company)}
	for _, a := range o.Aliases {
		keys = append(keys, utils.FoldKey(a))
	}
	return slices.DeleteFunc(keys, func(k string) bool { return k == "" })
}

func matchesAny(company string, keys []string) bool {
	k := utils.FoldKey(company)
	if k == "" {
		return false
	}
	return slices.ContainsFunc(keys, func(key string) bool {
		return k == key || strings.HasPrefix(k, key+"-")
	})
}

// RemoveOverridden drops records whose company is named by an override.
func RemoveOverridden(records []Record, overrides []Override) []Record {
	var keys []string
	for _, o := range overrides {
		keys = append(keys, o.keys()...)
	}
	if len(keys) == 0 {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if !matchesAny(r.Company, keys) {
			out = append(out, r)
		}
	}
	return out
}

// PrependOverrides removes every record an override names and puts the
// overrides, in their given order, at the front of the list.
func PrependOverrides(active []Record, overrides []Override) []Record {
	rest := RemoveOverridden(active, overrides)
	out := make([]Record, 0, len(overrides)+len(rest))
	for _, o := range overrides {
		out = append(out, o.Record)
	}
	return append(out, rest...)
}

// ApplyOverrides prepends the overrides to the active list of a document and
// removes their companies from the draft list.
func ApplyOverrides(doc Document, overrides []Override) Document {
	if len(overrides) == 0 {
		return doc
	}
	return NewDocument(Buckets{
		Active: PrependOverrides(doc.Active, overrides),
		Draft:  RemoveOverridden(doc.Draft, overrides),
	})
}
