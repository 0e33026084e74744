package filter

import (
	"fmt"
	"strings"
)

// Bound picks the lower or upper end of the time range.
type Bound string

const (
	From Bound = "from"
	To   Bound = "to"
)

// Part names one editable sub-field of a time value.
type Part string

const (
	Hours   Part = "hh"
	Minutes Part = "mm"
	Seconds Part = "ss"
	Millis  Part = "ms"
)

// TimeParts is a time value split for editing. Empty parts mean "unset",
// which is distinct from zero.
type TimeParts struct {
	HH string
	MM string
	SS string
	MS string
}

// IsEmpty reports whether every part is unset.
func (p TimeParts) IsEmpty() bool {
	return p.HH == "" && p.MM == "" && p.SS == "" && p.MS == ""
}

// DecomposeTime splits "H:MM:SS.mmm" into its parts. Missing parts are "".
func DecomposeTime(value string) TimeParts {
	if value == "" {
		return TimeParts{}
	}
	var p TimeParts
	segs := strings.Split(value, ":")
	p.HH = segs[0]
	if len(segs) > 1 {
		p.MM = segs[1]
	}
	if len(segs) > 2 {
		sec := strings.Split(segs[2], ".")
		p.SS = sec[0]
		if len(sec) > 1 {
			p.MS = sec[1]
		}
	}
	return p
}

// ComposeTime joins parts as "H:M:S.ms". Empty parts become "0" unless all
// parts are empty, in which case the result is "". No padding is applied.
func ComposeTime(p TimeParts) string {
	if p.IsEmpty() {
		return ""
	}
	return fmt.Sprintf("%s:%s:%s.%s", orZero(p.HH), orZero(p.MM), orZero(p.SS), orZero(p.MS))
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// MaxLen returns the digit limit for a part.
func (p Part) MaxLen() int {
	if p == Millis {
		return 3
	}
	return 2
}

// SanitizePart strips non-digits from raw and truncates to the part's limit.
func SanitizePart(part Part, raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if n := part.MaxLen(); len(digits) > n {
		digits = digits[:n]
	}
	return digits
}

func (b Bound) filterName() (Name, error) {
	switch b {
	case From:
		return TimeFrom, nil
	case To:
		return TimeTo, nil
	}
	return "", fmt.Errorf("%w: time bound %q", ErrUnknownFilter, string(b))
}

// TimeParts returns the decomposed value of one bound.
func (f Filters) TimeParts(b Bound) TimeParts {
	name, err := b.filterName()
	if err != nil {
		return TimeParts{}
	}
	v, _ := f.Get(name)
	return DecomposeTime(v)
}

// EditTimePart replaces one sub-field of a time bound with the sanitized
// input and stores the recomposed value.
func (f *Filters) EditTimePart(b Bound, part Part, raw string) error {
	name, err := b.filterName()
	if err != nil {
		return err
	}
	cur, _ := f.Get(name)
	p := DecomposeTime(cur)
	v := SanitizePart(part, raw)
	switch part {
	case Hours:
		p.HH = v
	case Minutes:
		p.MM = v
	case Seconds:
		p.SS = v
	case Millis:
		p.MS = v
	default:
		return fmt.Errorf("%w: time part %q", ErrUnknownFilter, string(part))
	}
	return f.Set(name, ComposeTime(p))
}
