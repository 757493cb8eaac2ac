package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestJSONWireShape(t *testing.T) {
	tree := HLayout{Children: []Content{
		Text{Text: "hi"},
		Live{URL: "/feed", Interval: 2.5},
		Blob{URL: "/img.png", MimeType: "image/png", Description: "logo"},
		If{Flag: "dark", Then: Ctx{Key: "theme"}, Else: Include{URL: "/light.hcf"}},
		Form{Children: []Content{Field{Name: "q", Label: "Search", Type: FieldText}}, PostURL: "/search"},
	}}

	data, err := MarshalJSON(tree)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	want := `{"HLayout":[{"Text":"hi"},{"Live":["/feed",2.5]},{"Blob":["/img.png","image/png","logo"]},` +
		`{"If":["dark",{"Ctx":"theme"},{"Include":"/light.hcf"}]},` +
		`{"Form":[[{"Field":["q","Search","text"]}],"/search"]}]}`
	if string(data) != want {
		t.Errorf("MarshalJSON() =\n%s\nwant\n%s", data, want)
	}

	back, err := UnmarshalJSON(data)
	if err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	if diff := cmp.Diff(Content(tree), back); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestUnknownVariantSurvivesRoundTrip(t *testing.T) {
	in := `{"VLayout":[{"Carousel":[["/a.png","/b.png"],3]},{"Text":"after"}]}`
	c, err := UnmarshalJSON([]byte(in))
	if err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	u, ok := c.(VLayout).Children[0].(Unknown)
	if !ok {
		t.Fatalf("expected Unknown, got %T", c.(VLayout).Children[0])
	}
	if u.Kind() != "Carousel" {
		t.Errorf("Kind() = %q, want Carousel", u.Kind())
	}
	out, err := MarshalJSON(c)
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(out) != in {
		t.Errorf("re-encoded as %s, want %s", out, in)
	}
}

func TestBareUnknownVariantSurvivesRoundTrip(t *testing.T) {
	in := `{"Menu":["Divider",{"Text":"after"}]}`
	c, err := UnmarshalJSON([]byte(in))
	if err != nil {
		t.Fatalf("UnmarshalJSON() error = %v", err)
	}
	want := Unknown{Tag: "Divider", Bare: true}
	if diff := cmp.Diff(want, c.(Menu).Children[0]); diff != "" {
		t.Errorf("decoded mismatch (-want +got):\n%s", diff)
	}
	out, err := MarshalJSON(Clone(c))
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(out) != in {
		t.Errorf("re-encoded as %s, want %s", out, in)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		kind Kind
	}{
		{"live arity", `{"Live":["/feed"]}`, KindLive},
		{"live interval type", `{"Live":["/feed","soon"]}`, KindLive},
		{"text payload", `{"Text":5}`, KindText},
		{"if arity", `{"If":["f",{"Text":"y"}]}`, KindIf},
		{"form children", `{"Form":["nope","/p"]}`, KindForm},
		{"two keys", `{"Text":"a","Ref":["/r","r"]}`, ""},
		{"not a map", `42`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalJSON([]byte(tt.in))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
			if de.Kind != tt.kind {
				t.Errorf("DecodeError.Kind = %q, want %q", de.Kind, tt.kind)
			}
		})
	}
}

// nestedAliases builds a document where every level refers nine times to
// the level below it.
func nestedAliases(levels int) string {
	var b strings.Builder
	b.WriteString("l0: &l0 {Text: lol}\n")
	for i := 1; i <= levels; i++ {
		fmt.Fprintf(&b, "l%d: &l%d {VLayout: [", i, i)
		for j := 0; j < 9; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "*l%d", i-1)
		}
		b.WriteString("]}\n")
	}
	return b.String()
}

func TestYAMLAliases(t *testing.T) {
	got, err := UnmarshalYAML([]byte("VLayout: [&t {Text: hi}, *t]\n"))
	if err != nil {
		t.Fatalf("UnmarshalYAML() error = %v", err)
	}
	want := VLayout{Children: []Content{Text{Text: "hi"}, Text{Text: "hi"}}}
	if !Equal(want, got) {
		t.Errorf("UnmarshalYAML() = %#v, want %#v", got, want)
	}

	bad := map[string]string{
		"self reference":   "&a {HLayout: [*a]}\n",
		"indirect cycle":   "&a {VLayout: [{If: [f, &b {HLayout: [*a]}, *b]}]}\n",
		"expansion budget": nestedAliases(9),
	}
	for name, src := range bad {
		t.Run(name, func(t *testing.T) {
			_, err := UnmarshalYAML([]byte(src))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
		})
	}
}

func TestNestedDecodeErrorCarriesIndex(t *testing.T) {
	_, err := UnmarshalJSON([]byte(`{"Menu":[{"Text":"ok"},{"Ref":["/only-url"]}]}`))
	if err == nil || !strings.Contains(err.Error(), "element 1") {
		t.Errorf("expected error naming element 1, got %v", err)
	}
}

func TestYAMLMapAndTagForms(t *testing.T) {
	mapForm := `
VLayout:
  - Text: hello
  - If:
      - beta
      - Ctx: banner
      - Text: stable
  - Live: [/feed, 10]
`
	tagForm := `
!VLayout
- !Text hello
- !If [beta, !Ctx banner, !Text stable]
- !Live [/feed, 10]
`
	want := VLayout{Children: []Content{
		Text{Text: "hello"},
		If{Flag: "beta", Then: Ctx{Key: "banner"}, Else: Text{Text: "stable"}},
		Live{URL: "/feed", Interval: 10},
	}}

	for name, src := range map[string]string{"map": mapForm, "tag": tagForm} {
		t.Run(name, func(t *testing.T) {
			got, err := UnmarshalYAML([]byte(src))
			if err != nil {
				t.Fatalf("UnmarshalYAML() error = %v", err)
			}
			if diff := cmp.Diff(Content(want), got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSequenceFieldEncoding(t *testing.T) {
	type doc struct {
		Content Sequence `json:"content" yaml:"content"`
	}
	in := doc{Content: Sequence{Text{Text: "a"}, Ref{URL: "/b", Description: "b"}}}

	js, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var fromJSON doc
	if err = json.Unmarshal(js, &fromJSON); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if !EqualAll(in.Content, fromJSON.Content) {
		t.Errorf("json round trip = %#v", fromJSON.Content)
	}

	ys, err := yaml.Marshal(in)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	var fromYAML doc
	if err = yaml.Unmarshal(ys, &fromYAML); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if !EqualAll(in.Content, fromYAML.Content) {
		t.Errorf("yaml round trip = %#v", fromYAML.Content)
	}
}

func TestFromValueAcceptsDecoderNumberKinds(t *testing.T) {
	for _, n := range []any{uint64(3), int64(3), 3, float32(3), json.Number("3")} {
		c, err := FromValue(map[any]any{"Live": []any{"/l", n}})
		if err != nil {
			t.Fatalf("FromValue(%T) error = %v", n, err)
		}
		if c.(Live).Interval != 3 {
			t.Errorf("FromValue(%T) interval = %v", n, c.(Live).Interval)
		}
	}
}
