package value

import (
	"bytes"
	"math"
	"testing"
)

func TestTypeNames(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"none", Value{}, "none"},
		{"string", NewString([]byte("x")), "string"},
		{"int", NewInt(42), "string"},
		{"hash", NewHash(), "hash"},
		{"set", NewSet(), "set"},
		{"zset", NewZSet(), "zset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.TypeName(); got != tt.want {
				t.Errorf("TypeName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBytesFormatsInt(t *testing.T) {
	v := NewInt(-123)
	b, ok := v.Bytes()
	if !ok || !bytes.Equal(b, []byte("-123")) {
		t.Fatalf("Bytes = %q, %v", b, ok)
	}
	hv := NewHash()
	if _, ok := hv.Bytes(); ok {
		t.Fatal("Bytes on a hash succeeded")
	}
}

func TestIntParsing(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"-7", -7, false},
		{"9223372036854775807", math.MaxInt64, false},
		{"9223372036854775808", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"1.5", 0, true},
		{" 1", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v := NewString([]byte(tt.in))
			n, err := v.Int()
			if tt.wantErr {
				if err != ErrNotAnInteger {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if err != nil || n != tt.want {
				t.Fatalf("Int = %d, %v", n, err)
			}
		})
	}
}

func TestIncrDecr(t *testing.T) {
	v := NewString([]byte("10"))
	n, err := v.IncrBy(5)
	if err != nil || n != 15 {
		t.Fatalf("IncrBy = %d, %v", n, err)
	}
	// The representation converts to a native int.
	if v.Kind() != KindInt {
		t.Fatalf("kind after incr = %v", v.Kind())
	}

	n, err = v.DecrBy(20)
	if err != nil || n != -5 {
		t.Fatalf("DecrBy = %d, %v", n, err)
	}

	v = NewInt(math.MaxInt64)
	if _, err := v.IncrBy(1); err != ErrOverflow {
		t.Fatalf("overflow err = %v", err)
	}
	v = NewInt(math.MinInt64)
	if _, err := v.DecrBy(1); err != ErrOverflow {
		t.Fatalf("underflow err = %v", err)
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10"},
		{10.5, "10.5"},
		{-3, "-3"},
		{0, "0"},
		{1000000, "1000000"},
	}
	for _, tt := range tests {
		if got := string(FormatScore(tt.in)); got != tt.want {
			t.Errorf("FormatScore(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
