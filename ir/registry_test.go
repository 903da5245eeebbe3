package ir

import "testing"

func TestTypeRegistry_ScalarDeduplication(t *testing.T) {
	registry := NewTypeRegistry()

	f32a := registry.GetOrCreate("f32", ScalarType{Kind: ScalarFloat, Width: 4})
	f32b := registry.GetOrCreate("f32", ScalarType{Kind: ScalarFloat, Width: 4})

	if f32a != f32b {
		t.Errorf("Expected same handle for identical scalar types, got %d and %d", f32a, f32b)
	}
	if len(registry.Types()) != 1 {
		t.Errorf("Expected 1 type, got %d", len(registry.Types()))
	}
}

func TestTypeRegistry_DifferentScalars(t *testing.T) {
	registry := NewTypeRegistry()

	handles := []TypeHandle{
		registry.GetOrCreate("f32", ScalarType{Kind: ScalarFloat, Width: 4}),
		registry.GetOrCreate("i32", ScalarType{Kind: ScalarSint, Width: 4}),
		registry.GetOrCreate("u32", ScalarType{Kind: ScalarUint, Width: 4}),
		registry.GetOrCreate("bool", ScalarType{Kind: ScalarBool, Width: 1}),
	}

	for i := 0; i < len(handles); i++ {
		for j := i + 1; j < len(handles); j++ {
			if handles[i] == handles[j] {
				t.Errorf("Expected different handles for different types, got %d == %d", handles[i], handles[j])
			}
		}
	}
	if len(registry.Types()) != 4 {
		t.Errorf("Expected 4 types, got %d", len(registry.Types()))
	}
}

func TestTypeRegistry_VectorDeduplication(t *testing.T) {
	registry := NewTypeRegistry()
	scalar := ScalarType{Kind: ScalarFloat, Width: 4}

	a := registry.GetOrCreate("", VectorType{Size: Vec4, Scalar: scalar})
	b := registry.GetOrCreate("", VectorType{Size: Vec4, Scalar: scalar})
	c := registry.GetOrCreate("", VectorType{Size: Vec3, Scalar: scalar})

	if a != b {
		t.Errorf("Expected same handle for identical vector types, got %d and %d", a, b)
	}
	if a == c {
		t.Error("vec4 and vec3 must not share a handle")
	}
}

func TestTypeRegistry_StructKeysOnMembers(t *testing.T) {
	registry := NewTypeRegistry()
	f32 := registry.GetOrCreate("f32", ScalarType{Kind: ScalarFloat, Width: 4})
	u32 := registry.GetOrCreate("u32", ScalarType{Kind: ScalarUint, Width: 4})

	a := registry.GetOrCreate("A", StructType{
		Members: []StructMember{{Name: "x", Type: f32, Offset: 0}},
		Span:    4,
	})
	b := registry.GetOrCreate("B", StructType{
		Members: []StructMember{{Name: "y", Type: f32, Offset: 0}},
		Span:    4,
	})
	c := registry.GetOrCreate("C", StructType{
		Members: []StructMember{{Name: "x", Type: u32, Offset: 0}},
		Span:    4,
	})

	// Member names do not participate in the structural key.
	if a != b {
		t.Errorf("structurally equal structs got handles %d and %d", a, b)
	}
	if a == c {
		t.Error("structs with different member types must not share a handle")
	}
}

func TestTypeRegistry_PointerSpaces(t *testing.T) {
	registry := NewTypeRegistry()
	f32 := registry.GetOrCreate("f32", ScalarType{Kind: ScalarFloat, Width: 4})

	fnPtr := registry.GetOrCreate("", PointerType{Base: f32, Space: SpaceFunction})
	priPtr := registry.GetOrCreate("", PointerType{Base: f32, Space: SpacePrivate})

	if fnPtr == priPtr {
		t.Error("pointers in different address spaces must not share a handle")
	}
}

func TestTypeRegistry_HandleStability(t *testing.T) {
	registry := NewTypeRegistry()

	f32 := registry.GetOrCreate("f32", ScalarType{Kind: ScalarFloat, Width: 4})
	vec := registry.GetOrCreate("", VectorType{Size: Vec2, Scalar: ScalarType{Kind: ScalarFloat, Width: 4}})

	types := registry.Types()
	if _, ok := types[f32].Inner.(ScalarType); !ok {
		t.Errorf("handle %d does not index its scalar type", f32)
	}
	if _, ok := types[vec].Inner.(VectorType); !ok {
		t.Errorf("handle %d does not index its vector type", vec)
	}
}
