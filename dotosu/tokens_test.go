package dotosu

import (
	"math"
	"testing"
)

func TestParseCommitsOnlyOnFullMatch(t *testing.T) {
	a, b, c := 7, 7, 7
	if Parse("1, 2, x", Int(&a), Sep(','), Int(&b), Sep(','), Int(&c)) {
		t.Fatal("chain with a bad slot matched")
	}
	if a != 7 || b != 7 || c != 7 {
		t.Fatalf("partial match wrote outputs: %d %d %d", a, b, c)
	}
	if !Parse(" 1 ,\t2 , 3 trailing", Int(&a), Sep(','), Int(&b), Sep(','), Int(&c)) {
		t.Fatal("valid chain did not match")
	}
	if a != 1 || b != 2 || c != 3 {
		t.Fatalf("got %d %d %d", a, b, c)
	}
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want float64
	}{
		{"1.5", true, 1.5},
		{"-2e3", true, -2000},
		{".25", true, 0.25},
		{"3.", true, 3},
		{"1e", true, 1},
		{"1e999", false, 0},
		{"nan", false, 0},
		{"abc", false, 0},
		{"", false, 0},
	}
	for _, tt := range tests {
		var f float64
		ok := Parse(tt.in, Float(&f))
		if ok != tt.ok || (ok && f != tt.want) {
			t.Errorf("Float(%q) = %v, %v; want %v, %v", tt.in, f, ok, tt.want, tt.ok)
		}
	}

	var i int
	if Parse("2147483648", Int(&i)) {
		t.Error("int overflow accepted")
	}
	var i64 int64
	if !Parse("2147483648", Int64(&i64)) || i64 != 2147483648 {
		t.Errorf("Int64 = %d", i64)
	}
	var f32 float32
	if Parse("1e39", Float32(&f32)) {
		t.Error("float32 overflow accepted")
	}
	if Parse("NaN", Float32(&f32)) {
		t.Error("Float32 accepted NaN")
	}
	if !Parse("NaN", FloatNaN(&f32)) || !math.IsNaN(float64(f32)) {
		t.Error("FloatNaN rejected NaN")
	}
}

func TestParseString(t *testing.T) {
	var s string
	if !ParseValue("Title : Some Song  ", "Title", String(&s)) || s != "Some Song" {
		t.Errorf("bare string = %q", s)
	}
	if !Parse(`0,0,"bg file.jpg",0,0`, Label("0,0,"), String(&s)) || s != "bg file.jpg" {
		t.Errorf("quoted string = %q", s)
	}
	s = "keep"
	if Parse(`"unterminated`, String(&s)) || s != "keep" {
		t.Errorf("unterminated quote matched, s = %q", s)
	}
}

func TestParseValueLabelIsExact(t *testing.T) {
	var title string
	if ParseValue("TitleUnicode:x", "Title", String(&title)) {
		t.Error("Title matched TitleUnicode")
	}
}
