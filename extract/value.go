// Package extract pulls individual fields out of normalized page text and
// label/value tables. Extractors never fail: a value that cannot be found
// comes back marked as missing and carrying its sentinel text.
package extract

// Kind tells what sort of value a field holds.
type Kind int

const (
	KindFreeText Kind = iota
	KindPrice
	KindDateRange
	KindPercentage
	KindCount
	KindList
)

// Placeholder texts for values that could not be found.
const (
	NoPrice        = "Belirlenmedi"
	NoDate         = "Tarih Yok"
	NoCount        = "Bilgi Yok"
	NoDistribution = "Belirtilmemiş"
	NoBroker       = "Bilinmiyor"
	NoCode         = "KOD_YOK"
)

// Value is one extracted field.
type Value struct {
	Kind   Kind
	Text   string
	Number float64
	List   []string
	Found  bool
}

func found(kind Kind, text string) Value {
	return Value{Kind: kind, Text: text, Found: true}
}

func missing(kind Kind) Value {
	return Value{Kind: kind, Text: sentinel(kind)}
}

func sentinel(kind Kind) string {
	switch kind {
	case KindPrice:
		return NoPrice
	case KindDateRange:
		return NoDate
	case KindCount:
		return NoCount
	}
	return ""
}

// Or returns the value text, or def when nothing was found.
func (v Value) Or(def string) string {
	if !v.Found {
		return def
	}
	return v.Text
}

// String returns the text, or the sentinel for the kind.
func (v Value) String() string {
	if !v.Found {
		return sentinel(v.Kind)
	}
	return v.Text
}

// First returns the first found value, or the last candidate when none was
// found.
func First(candidates ...Value) Value {
	for _, c := range candidates {
		if c.Found {
			return c
		}
	}
	if len(candidates) == 0 {
		return Value{}
	}
	return candidates[len(candidates)-1]
}
