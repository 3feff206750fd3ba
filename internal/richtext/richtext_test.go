package richtext

import "testing"

func TestFromPlain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain", "Hello", "Hello"},
		{"newline", "Hello\nWorld", "Hello<br />World"},
		{"special chars", `a < b & "c" 'd'`, "a &lt; b &amp; &quot;c&quot; &#039;d&#039;"},
		{"already html", "<p>Hi</p>", "<p>Hi</p>"},
		{"already escaped", "a &amp; b", "a &amp; b"},
		{"bare angle is not a tag", "x < 3", "x &lt; 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromPlain(tt.in); got != tt.want {
				t.Errorf("FromPlain(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFromPlainIdempotent(t *testing.T) {
	inputs := []string{"Hello\nWorld", "a & b", "1 < 2 > 0", "it's", "<b>x</b>", "plain text"}
	for _, in := range inputs {
		once := FromPlain(in)
		twice := FromPlain(once)
		if once != twice {
			t.Errorf("FromPlain not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"<p>Apa ibu kota <b>Indonesia</b>?</p>", "Apa ibu kota Indonesia?"},
		{"no tags", "no tags"},
		{"<br />line", "line"},
		{"unterminated <b", "unterminated "},
	}
	for _, tt := range tests {
		if got := StripTags(tt.in); got != tt.want {
			t.Errorf("StripTags(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsBlank(t *testing.T) {
	if !IsBlank("<p><br></p>") {
		t.Error("expected markup-only fragment to be blank")
	}
	if !IsBlank(" &nbsp; ") {
		t.Error("expected nbsp-only fragment to be blank")
	}
	if IsBlank("<p>x</p>") {
		t.Error("expected fragment with text to be non-blank")
	}
}

func TestLiteralEntityTextIsKept(t *testing.T) {
	in := "Hak cipta &copy; 2020\nSekolah"
	if !LooksLikeHTML(in) {
		t.Fatalf("LooksLikeHTML(%q) = false", in)
	}
	if got := FromPlain(in); got != in {
		t.Errorf("FromPlain(%q) = %q, want it unchanged", in, got)
	}
}
