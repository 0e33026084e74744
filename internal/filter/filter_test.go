package filter

import (
	"errors"
	"testing"
)

func TestSetRejectsUnknownName(t *testing.T) {
	var f Filters
	if err := f.Set(Name("severity"), "x"); !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("Set unknown = %v, want ErrUnknownFilter", err)
	}
	if _, err := ParseName("nope"); !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("ParseName unknown = %v", err)
	}
	n, err := ParseName("req_id")
	if err != nil || n != ReqID {
		t.Fatalf("ParseName(req_id) = %q, %v", n, err)
	}
}

func TestFieldsOmitsEmptyValues(t *testing.T) {
	var f Filters
	_ = f.Set(Level, "error")
	_ = f.Set(SearchText, "aws_instance")
	_ = f.Set(Operation, "")

	fields := f.Fields()
	if len(fields) != 2 {
		t.Fatalf("Fields = %+v, want 2 entries", fields)
	}
	if fields[0].Name != Level || fields[1].Name != SearchText {
		t.Fatalf("Fields order = %+v", fields)
	}

	m := f.Map()
	if _, ok := m["operation"]; ok {
		t.Fatal("empty operation should be omitted from the query map")
	}
	if m["level"] != "error" {
		t.Fatalf("level = %q", m["level"])
	}

	_ = f.Set(Level, "")
	_ = f.Set(SearchText, "")
	if !f.IsZero() || f.Map() != nil {
		t.Fatalf("cleared filters should be zero, got %+v", f.Fields())
	}
}

func TestTimeRoundTrip(t *testing.T) {
	for _, s := range []string{"1:02:03.456", "12:59:59.999", "0:00:00.000", "9:5:7.1"} {
		if got := ComposeTime(DecomposeTime(s)); got != s {
			t.Errorf("round trip %q = %q", s, got)
		}
	}
}

func TestEmptyTime(t *testing.T) {
	p := DecomposeTime("")
	if !p.IsEmpty() {
		t.Fatalf("DecomposeTime(\"\") = %+v", p)
	}
	if got := ComposeTime(TimeParts{}); got != "" {
		t.Fatalf("ComposeTime(empty) = %q, want empty", got)
	}
}

func TestDecomposePartial(t *testing.T) {
	p := DecomposeTime("10:30")
	if p.HH != "10" || p.MM != "30" || p.SS != "" || p.MS != "" {
		t.Fatalf("DecomposeTime(10:30) = %+v", p)
	}
	if got := ComposeTime(p); got != "10:30:0.0" {
		t.Fatalf("ComposeTime = %q", got)
	}
}

func TestSanitizePart(t *testing.T) {
	cases := []struct {
		part Part
		raw  string
		want string
	}{
		{Millis, "12a3", "123"},
		{Millis, "12345", "123"},
		{Hours, "12345", "12"},
		{Minutes, "12345", "12"},
		{Seconds, "12345", "12"},
		{Seconds, "x", ""},
	}
	for _, c := range cases {
		if got := SanitizePart(c.part, c.raw); got != c.want {
			t.Errorf("SanitizePart(%s, %q) = %q, want %q", c.part, c.raw, got, c.want)
		}
	}
}

func TestEditTimePart(t *testing.T) {
	var f Filters
	if err := f.EditTimePart(From, Millis, "12a3"); err != nil {
		t.Fatalf("EditTimePart: %v", err)
	}
	if f.TimeFrom != "0:0:0.123" {
		t.Fatalf("TimeFrom = %q", f.TimeFrom)
	}
	if err := f.EditTimePart(From, Hours, "7"); err != nil {
		t.Fatalf("EditTimePart: %v", err)
	}
	if f.TimeFrom != "7:0:0.123" {
		t.Fatalf("TimeFrom = %q", f.TimeFrom)
	}
	if f.TimeTo != "" {
		t.Fatalf("TimeTo should be untouched, got %q", f.TimeTo)
	}

	// Zeros substituted on compose stick once written back.
	_ = f.EditTimePart(To, Seconds, "5")
	_ = f.EditTimePart(To, Seconds, "")
	if f.TimeTo != "0:0:0.0" {
		t.Fatalf("TimeTo = %q, want 0:0:0.0", f.TimeTo)
	}
}
