package params

import (
	"reflect"
	"strings"
	"testing"
)

func TestClampScalarBounds(t *testing.T) {
	d := Descriptor{Name: "rate", Kind: KindScalar, Type: TypeFloat, Min: Float(0), Max: Float(10)}
	cases := []struct {
		in       float64
		want     float64
		warnings int
	}{
		{-1, 0, 1},
		{0, 0, 0},
		{5, 5, 0},
		{10, 10, 0},
		{15, 10, 1},
	}
	for _, tc := range cases {
		got, warnings := Clamp(tc.in, d)
		if got != tc.want {
			t.Fatalf("clamp %v: expected %v, got %v", tc.in, tc.want, got)
		}
		if len(warnings) != tc.warnings {
			t.Fatalf("clamp %v: expected %d warnings, got %+v", tc.in, tc.warnings, warnings)
		}
		for _, w := range warnings {
			if w.Condition != ConditionOutOfBounds || w.Param != "rate" {
				t.Fatalf("unexpected warning %+v", w)
			}
		}
	}
}

func TestClampIntUsesIntegralBounds(t *testing.T) {
	d := Descriptor{Name: "retries", Kind: KindScalar, Type: TypeInt, Min: Float(1), Max: Float(5)}
	got, warnings := Clamp(9, d)
	if got != 5 || len(warnings) != 1 {
		t.Fatalf("expected 5 with one warning, got %v %+v", got, warnings)
	}
	if !strings.Contains(warnings[0].Message, "greater than maximal allowed value") {
		t.Fatalf("unexpected message %q", warnings[0].Message)
	}
}

func TestClampVectorElementWise(t *testing.T) {
	d := Descriptor{Name: "limits", Kind: KindVector, Type: TypeInt, Min: Float(0), Max: Float(100)}
	in := []int{-5, 50, 200}
	got, warnings := Clamp(in, d)
	if !reflect.DeepEqual(got, []int{0, 50, 100}) {
		t.Fatalf("expected [0 50 100], got %v", got)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected one aggregate warning per violated bound, got %+v", warnings)
	}
	if !reflect.DeepEqual(in, []int{-5, 50, 200}) {
		t.Fatalf("expected input untouched, got %v", in)
	}

	again, warnings := Clamp(got, d)
	if !reflect.DeepEqual(again, got) || len(warnings) != 0 {
		t.Fatalf("expected idempotent clamp, got %v %+v", again, warnings)
	}
}

func TestClampVectorSingleAggregateWarning(t *testing.T) {
	d := Descriptor{Name: "gains", Kind: KindVector, Type: TypeFloat, Min: Float(0.5)}
	got, warnings := Clamp([]float64{0.1, 0.2, 1, 0.3}, d)
	if !reflect.DeepEqual(got, []float64{0.5, 0.5, 1, 0.5}) {
		t.Fatalf("unexpected clamp result %v", got)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected a single aggregate warning, got %+v", warnings)
	}
}

func TestClampMapValuesOnly(t *testing.T) {
	d := Descriptor{Name: "weights", Kind: KindMap, KeyType: TypeInt, Type: TypeFloat, Min: Float(0), Max: Float(1)}
	got, warnings := Clamp(map[int]float64{-3: 0.5, 200: 2, 7: -1}, d)
	want := map[int]float64{-3: 0.5, 200: 1, 7: 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected two warnings, got %+v", warnings)
	}
}

func TestClampSkipsNonNumericAndUnbounded(t *testing.T) {
	if got, w := Clamp("fast", Descriptor{Type: TypeString}); got != "fast" || w != nil {
		t.Fatalf("expected string passthrough, got %v %+v", got, w)
	}
	if got, w := Clamp(1e9, Descriptor{Type: TypeFloat}); got != 1e9 || w != nil {
		t.Fatalf("expected unbounded passthrough, got %v %+v", got, w)
	}
}
