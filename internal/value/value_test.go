package value

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = Bool(true)
	var _ Value = Int(42)
	var _ Value = Float(1.5)
	var _ Value = String("x")
	var _ Value = Date{Time: time.Now()}
	var _ Value = Array{Int(1)}
	var _ Value = Object{M("k", Int(1))}
}

func TestDecode_PreservesKeyOrder(t *testing.T) {
	v, err := Decode([]byte(`{"zeta":1,"alpha":2,"mid":3}`))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, obj.Keys())
}

func TestDecode_Numbers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Value
	}{
		{"integer", `7`, Int(7)},
		{"negative integer", `-3`, Int(-3)},
		{"fraction", `1.25`, Float(1.25)},
		{"exponent", `1e3`, Float(1000)},
		{"beyond int64", `92233720368547758070`, Float(92233720368547758070)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Scalars(t *testing.T) {
	v, err := Decode([]byte(`[null, true, "s"]`))
	require.NoError(t, err)
	assert.Equal(t, Array{Null{}, Bool(true), String("s")}, v)
}

func TestDecode_Date(t *testing.T) {
	v, err := Decode([]byte(`{"$date":"2021-03-04T05:06:07Z"}`))
	require.NoError(t, err)

	d, ok := v.(Date)
	require.True(t, ok)
	assert.True(t, d.Time.Equal(time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)))
}

func TestDecode_DateRejectsNonString(t *testing.T) {
	_, err := Decode([]byte(`{"$date":12}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$date")
}

func TestDecode_Errors(t *testing.T) {
	for _, in := range []string{``, `{`, `{"a":}`, `[1,2`, `{"a":1} {"b":2}`} {
		t.Run(in, func(t *testing.T) {
			_, err := Decode([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestMarshal_WireOrder(t *testing.T) {
	obj := Object{M("b", Int(1)), M("a", String("<x>")), M("c", Array{Bool(false), Null{}})}

	out, err := Marshal(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":"<x>","c":[false,null]}`, string(out))
}

func TestMarshal_IntegralFloatKeepsFraction(t *testing.T) {
	out, err := Marshal(Float(2))
	require.NoError(t, err)
	assert.Equal(t, `2.0`, string(out))

	back, err := Decode(out)
	require.NoError(t, err)
	assert.Equal(t, Float(2), back)
}

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	a := Object{M("b", Int(1)), M("a", Int(2))}
	b := Object{M("a", Int(2)), M("b", Int(1))}

	ca, err := MarshalCanonical(a)
	require.NoError(t, err)
	cb, err := MarshalCanonical(b)
	require.NoError(t, err)

	assert.Equal(t, `{"a":2,"b":1}`, string(ca))
	assert.Equal(t, ca, cb)
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9
	out, err := MarshalCanonical(String("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(out))
}

func TestMarshal_RejectsNonFinite(t *testing.T) {
	_, err := Marshal(Float(math.Inf(1)))
	assert.Error(t, err)
}

func TestFingerprint_IgnoresKeyOrder(t *testing.T) {
	a, err := Fingerprint(Object{M("x", Int(1)), M("y", Int(2))})
	require.NoError(t, err)
	b, err := Fingerprint(Object{M("y", Int(2)), M("x", Int(1))})
	require.NoError(t, err)
	c, err := Fingerprint(Object{M("y", Int(3)), M("x", Int(1))})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestObjectSetDelete(t *testing.T) {
	obj := Object{M("a", Int(1)), M("b", Int(2))}
	obj = obj.Set("a", Int(10))
	obj = obj.Set("c", Int(3))
	assert.Equal(t, []string{"a", "b", "c"}, obj.Keys())

	got, ok := obj.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int(10), got)

	obj = obj.Delete("b").Delete("missing")
	assert.Equal(t, []string{"a", "c"}, obj.Keys())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int(1), Float(1)))
	assert.True(t, Equal(Array{String("a")}, Array{String("a")}))
	assert.False(t, Equal(String("1"), Int(1)))
	assert.False(t, Equal(Null{}, nil))
	assert.False(t, Equal(Object{M("a", Int(1)), M("b", Int(2))}, Object{M("b", Int(2)), M("a", Int(1))}))
}

func TestCompare(t *testing.T) {
	c, ok := Compare(Int(2), Float(2.5))
	require.True(t, ok)
	assert.Equal(t, -1, c)

	c, ok = Compare(String("b"), String("a"))
	require.True(t, ok)
	assert.Equal(t, 1, c)

	_, ok = Compare(String("b"), Int(1))
	assert.False(t, ok)
}

func TestOf(t *testing.T) {
	v, err := Of(map[string]any{"b": 1, "a": []any{"x", true, nil}})
	require.NoError(t, err)
	assert.Equal(t, Object{
		M("a", Array{String("x"), Bool(true), Null{}}),
		M("b", Int(1)),
	}, v)

	_, err = Of(struct{}{})
	assert.Error(t, err)
}

func TestClone_IsDeep(t *testing.T) {
	orig := Object{M("a", Array{Object{M("b", Int(1))}})}
	cp := CloneObject(orig)
	require.True(t, Equal(orig, cp))

	inner := cp[0].Value.(Array)[0].(Object)
	inner[0].Value = Int(2)
	assert.Equal(t, Int(1), orig[0].Value.(Array)[0].(Object)[0].Value)
}
