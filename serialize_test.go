package locals

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

type Point struct {
	X int
	Y int
}

type hidden struct {
	name string
}

type broken struct{}

func (broken) GoString() string {
	panic("cannot render")
}

type label string

type appointment struct {
	Name string
	when time.Time
}

type inventory struct {
	Owner   string
	Items   []int
	Limits  map[string]int
	Refresh func()
}

func TestSerializeScalars(t *testing.T) {
	var nilPtr *int
	five := 5
	cases := []struct {
		name   string
		value  any
		expect string
	}{
		{name: "int", value: 3, expect: "int(3)"},
		{name: "string", value: "a", expect: `string("a")`},
		{name: "float", value: 3.14, expect: "float64(3.14)"},
		{name: "bool", value: true, expect: "bool(true)"},
		{name: "nil", value: nil, expect: "nil(nil)"},
		{name: "nil pointer", value: nilPtr, expect: "*int(nil)"},
		{name: "pointer looked through", value: &five, expect: "int(5)"},
		{name: "named string", value: label("x"), expect: `locals.label("x")`},
		{name: "duration", value: 5 * time.Nanosecond, expect: "time.Duration(5)"},
		{name: "time", value: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), expect: "time.Time(time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC))"},
		{name: "error", value: errors.New("boom"), expect: "*errors.errorString(boom)"},
		{name: "channel", value: make(chan int), expect: "chan(chan int)"},
		{name: "empty struct", value: struct{}{}, expect: "struct(struct {}{})"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Serialize(tc.value)
			if !ok {
				t.Fatalf("expected present value")
			}
			if got != tc.expect {
				t.Fatalf("expected %s, got %s", tc.expect, got)
			}
		})
	}
}

func TestSerializeBytesAreScalar(t *testing.T) {
	got, _ := Serialize([]byte("hi"))
	if got != "slice([]byte{0x68, 0x69})" {
		t.Fatalf("unexpected bytes representation %s", got)
	}
}

func TestSerializeSequences(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		expect string
	}{
		{name: "slice", value: []int{1, 2}, expect: "slice[int(1),int(2)]"},
		{name: "empty slice", value: []int{}, expect: "slice[]"},
		{name: "array", value: [2]string{"a", "b"}, expect: `array[string("a"),string("b")]`},
		{name: "mixed", value: []any{1, "a", nil}, expect: `slice[int(1),string("a"),nil(nil)]`},
		{name: "nested", value: [][]int{{1}, {}}, expect: "slice[slice[int(1)],slice[]]"},
		{name: "set sorted", value: map[string]struct{}{"b": {}, "a": {}}, expect: `map[string("a"),string("b")]`},
		{name: "suppressed elements", value: []any{func() {}, 1, reflect.TypeOf(0)}, expect: "slice[int(1)]"},
		{name: "only suppressed", value: []any{func() {}}, expect: "slice[]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Serialize(tc.value)
			if !ok || got != tc.expect {
				t.Fatalf("expected %s, got %s (ok=%v)", tc.expect, got, ok)
			}
		})
	}
}

func TestSerializeMappings(t *testing.T) {
	cases := []struct {
		name   string
		value  any
		expect string
	}{
		{name: "sorted by key", value: map[string]int{"b": 2, "a": 1}, expect: `tmap{string("a"):int(1),string("b"):int(2)}`},
		{name: "empty", value: map[string]int{}, expect: "tmap{}"},
		{name: "non string keys", value: map[int]string{9: "a", 10: "b"}, expect: `tmap{int(10):string("b"),int(9):string("a")}`},
		{name: "magic keys skipped", value: map[string]any{"__class__": 1, "__x": 2, "y__": 3}, expect: `tmap{string("__x"):int(2),string("y__"):int(3)}`},
		{name: "suppressed values dropped", value: map[string]any{"f": func() {}, "n": 1}, expect: `tmap{string("n"):int(1)}`},
		{name: "named map", value: Scope{"x": []int{1}}, expect: `tlocals.Scope{string("x"):slice[int(1)]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Serialize(tc.value)
			if !ok || got != tc.expect {
				t.Fatalf("expected %s, got %s (ok=%v)", tc.expect, got, ok)
			}
		})
	}
}

func TestSerializeComposites(t *testing.T) {
	got, _ := Serialize(Point{X: 1, Y: 2})
	if got != `fPoint<string("X"):int(1),string("Y"):int(2)>` {
		t.Fatalf("unexpected composite %s", got)
	}
	got, _ = Serialize(&Point{X: 3})
	if got != `fPoint<string("X"):int(3),string("Y"):int(0)>` {
		t.Fatalf("unexpected pointer composite %s", got)
	}
	got, _ = Serialize(struct{ A int }{A: 1})
	if got != `fstruct<string("A"):int(1)>` {
		t.Fatalf("unexpected anonymous composite %s", got)
	}
	got, _ = Serialize(hidden{name: "n"})
	if got != `fhidden<string("name"):string("n")>` {
		t.Fatalf("unexpected unexported field rendering %s", got)
	}
}

func TestSerializeUnexportedFieldsRenderLikeExported(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	when := `time.Time(time.Date(2024, time.January, 2, 3, 4, 5, 0, time.Location("X")))`

	cases := []struct {
		name   string
		value  any
		expect string
	}{
		{
			name:   "unexported time",
			value:  appointment{Name: "a", when: at},
			expect: `fappointment<string("Name"):string("a"),string("when"):` + when + `>`,
		},
		{
			name:   "unexported time through pointer",
			value:  &appointment{Name: "a", when: at},
			expect: `fappointment<string("Name"):string("a"),string("when"):` + when + `>`,
		},
		{
			name:   "exported time",
			value:  struct{ When time.Time }{When: at},
			expect: `fstruct<string("When"):` + when + `>`,
		},
		{
			name:   "nested unexported struct",
			value:  struct{ inner appointment }{inner: appointment{when: at}},
			expect: `fstruct<string("inner"):fappointment<string("Name"):string(""),string("when"):` + when + `>>`,
		},
		{
			name:   "unexported panicking value",
			value:  struct{ b broken }{},
			expect: `fstruct<string("b"):locals.broken(<unrepresentable>)>`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Serialize(tc.value)
			if !ok || got != tc.expect {
				t.Fatalf("expected %s, got %s (ok=%v)", tc.expect, got, ok)
			}
			if strings.Contains(got, "0x") {
				t.Fatalf("representation leaks an address: %s", got)
			}
		})
	}
}

func TestCompositeBodyMatchesMappingBody(t *testing.T) {
	cases := []struct {
		name      string
		composite any
		prefix    string
		mapping   any
	}{
		{
			name:      "scalar fields",
			composite: Point{X: 1, Y: 2},
			prefix:    "fPoint<",
			mapping:   map[string]any{"Y": 2, "X": 1},
		},
		{
			name: "nested and suppressed fields",
			composite: inventory{
				Owner:   "ops",
				Items:   []int{1, 2},
				Limits:  map[string]int{"b": 2, "a": 1},
				Refresh: func() {},
			},
			prefix: "finventory<",
			mapping: map[string]any{
				"Owner":   "ops",
				"Items":   []int{1, 2},
				"Limits":  map[string]int{"a": 1, "b": 2},
				"Refresh": func() {},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			composite, _ := Serialize(tc.composite)
			mapping, _ := Serialize(tc.mapping)

			compositeBody := strings.TrimSuffix(strings.TrimPrefix(composite, tc.prefix), ">")
			mappingBody := strings.TrimSuffix(strings.TrimPrefix(mapping, "tmap{"), "}")
			if compositeBody != mappingBody {
				t.Fatalf("composite body %q differs from mapping body %q", compositeBody, mappingBody)
			}
			if strings.Contains(compositeBody, "Refresh") {
				t.Fatalf("suppressed field leaked into %q", compositeBody)
			}
		})
	}
}

func TestSerializeSuppressedIsAbsent(t *testing.T) {
	for _, value := range []any{
		func() {},
		reflect.TypeOf(0),
		NewModule("math", nil),
		Module{},
	} {
		got, ok := Serialize(value)
		if ok || got != "" {
			t.Fatalf("expected %T to be absent, got %q", value, got)
		}
	}
}

func TestSerializeUnrepresentable(t *testing.T) {
	var failures []*UnrepresentableError
	encoder := NewEncoder(
		WithEncoderPlaceholder("?"),
		WithFailureHandler(func(err *UnrepresentableError) {
			failures = append(failures, err)
		}),
	)

	got, ok := encoder.Serialize([]any{broken{}, 1})
	if !ok || got != "slice[locals.broken(?),int(1)]" {
		t.Fatalf("unexpected output %s", got)
	}
	if len(failures) != 1 || failures[0].Type != "locals.broken" {
		t.Fatalf("expected one failure for locals.broken, got %+v", failures)
	}

	got, _ = Serialize(broken{})
	if got != "locals.broken(<unrepresentable>)" {
		t.Fatalf("expected default placeholder, got %s", got)
	}
}

func TestSerializeIsDeterministic(t *testing.T) {
	value := map[string]any{"b": []int{1}, "a": map[int]bool{3: true, 1: false}, "c": Point{}}
	first, _ := Serialize(value)
	for i := 0; i < 20; i++ {
		again, _ := Serialize(value)
		if again != first {
			t.Fatalf("representation changed between calls:\n%s\n%s", first, again)
		}
	}
}

func TestIsMagicName(t *testing.T) {
	cases := map[string]bool{
		"__main__":   true,
		"__init__":   true,
		"____":       true,
		"__private":  false,
		"trailing__": false,
		"plain":      false,
		"_x_":        false,
	}
	for name, expect := range cases {
		if got := IsMagicName(name); got != expect {
			t.Fatalf("IsMagicName(%q) = %v, want %v", name, got, expect)
		}
	}
}
