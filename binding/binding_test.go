package binding_test

import (
	"encoding/json"
	"testing"

	"github.com/foliohq/folio/binding"
)

func sampleData(t *testing.T) any {
	t.Helper()
	raw := `{
		"student": {"name": "小明", "grade": 3},
		"answers": [
			{"text": "Blue"},
			{"text": "Seven"}
		]
	}`
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("decode sample data: %v", err)
	}
	return data
}

func TestInterpolate(t *testing.T) {
	data := sampleData(t)
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no placeholders", "no placeholders"},
		{"field", "Hello ${student.name}!", "Hello 小明!"},
		{"number", "Grade ${student.grade}", "Grade 3"},
		{"index", "First: ${answers[0].text}", "First: Blue"},
		{"second index", "${answers[1].text}", "Seven"},
		{"missing keeps placeholder", "${student.missing}", "${student.missing}"},
		{"bad index keeps placeholder", "${answers[9].text}", "${answers[9].text}"},
		{"fallback used", "${student.missing|N/A}", "N/A"},
		{"fallback unused", "${student.name|N/A}", "小明"},
		{"empty path", "${ }", "${ }"},
		{"multiple", "${student.name} / ${answers[0].text}", "小明 / Blue"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := binding.Interpolate(c.in, data); got != c.want {
				t.Fatalf("Interpolate(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestInterpolateNilData(t *testing.T) {
	if got := binding.Interpolate("Hi ${student.name}", nil); got != "Hi ${student.name}" {
		t.Fatalf("expected placeholder preserved, got %q", got)
	}
	if got := binding.Interpolate("Hi ${student.name|guest}", nil); got != "Hi guest" {
		t.Fatalf("expected fallback with nil data, got %q", got)
	}
}

func TestInterpolateMalformedSegment(t *testing.T) {
	data := sampleData(t)
	in := "${answers[0.text}"
	if got := binding.Interpolate(in, data); got != in {
		t.Fatalf("expected malformed path preserved, got %q", got)
	}
}
