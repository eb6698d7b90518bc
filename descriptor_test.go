package params

import (
	"errors"
	"reflect"
	"testing"
)

func TestNewDescriptorSetValidation(t *testing.T) {
	cases := []struct {
		name string
		desc []Descriptor
		want error
	}{
		{"empty name", []Descriptor{{Name: " ", Type: TypeInt}}, ErrDescriptorName},
		{"duplicate", []Descriptor{{Name: "a", Type: TypeInt}, {Name: "a", Type: TypeBool}}, ErrDuplicateParameter},
		{"constant without default", []Descriptor{{Name: "c", Type: TypeInt, Constant: true}}, ErrConstantWithoutDefault},
		{"missing type", []Descriptor{{Name: "t"}}, ErrInvalidType},
		{"bool map key", []Descriptor{{Name: "m", Kind: KindMap, KeyType: TypeBool, Type: TypeInt}}, ErrInvalidType},
		{"bounds on string", []Descriptor{{Name: "s", Type: TypeString, Min: Float(0)}}, ErrInvalidBounds},
		{"fractional int bound", []Descriptor{{Name: "i", Type: TypeInt, Max: Float(2.5)}}, ErrInvalidBounds},
		{"inverted bounds", []Descriptor{{Name: "f", Type: TypeFloat, Min: Float(2), Max: Float(1)}}, ErrInvalidBounds},
		{"bad default", []Descriptor{{Name: "d", Type: TypeInt, Default: "many"}}, ErrInvalidDefault},
	}
	for _, tc := range cases {
		_, err := NewDescriptorSet(tc.desc...)
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
		var descErr *DescriptorError
		if !errors.As(err, &descErr) {
			t.Fatalf("%s: expected *DescriptorError, got %T", tc.name, err)
		}
	}
}

func TestDescriptorSetCanonicalisesDefaults(t *testing.T) {
	set := MustDescriptorSet(
		Descriptor{Name: "rate", Type: TypeFloat, Default: 5},
		Descriptor{Name: "limits", Kind: KindVector, Type: TypeInt, Default: []any{0.0}},
	)
	rate, ok := set.Lookup("rate")
	if !ok || rate.Default != 5.0 {
		t.Fatalf("expected float default 5.0, got %#v", rate.Default)
	}
	limits, _ := set.Lookup("limits")
	if !reflect.DeepEqual(limits.Default, []int{0}) {
		t.Fatalf("expected []int{0}, got %#v", limits.Default)
	}
	if got := set.Names(); !reflect.DeepEqual(got, []string{"rate", "limits"}) {
		t.Fatalf("expected declaration order, got %v", got)
	}
}

func TestDescriptorSetIsImmutable(t *testing.T) {
	set := MustDescriptorSet(Descriptor{Name: "limits", Kind: KindVector, Type: TypeInt, Default: []int{1, 2}, Min: Float(0)})

	items := set.Descriptors()
	items[0].Default.([]int)[0] = 99
	*items[0].Min = -50
	items[0].Name = "changed"

	again, _ := set.Lookup("limits")
	if !reflect.DeepEqual(again.Default, []int{1, 2}) || *again.Min != 0 {
		t.Fatalf("expected set to be unaffected by caller mutation, got %+v", again)
	}
}
