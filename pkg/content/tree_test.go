package content

import (
	"testing"
)

func sampleTree() Content {
	return VLayout{Children: []Content{
		Text{Text: "heading"},
		HLayout{Children: []Content{
			Ref{URL: "/a", Description: "A"},
			If{Flag: "beta", Then: Ctx{Key: "banner"}, Else: Text{Text: "stable"}},
		}},
		Form{
			Children: []Content{Field{Name: "pw", Label: "Password", Type: FieldPassword}},
			PostURL:  "https://example.org/login",
		},
		Live{URL: "/feed", Interval: 5},
		Unknown{Tag: "Video", Payload: map[string]any{"src": "/v.mp4"}},
	}}
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := sampleTree()
	clone := Clone(orig)

	if !Equal(orig, clone) {
		t.Fatal("clone is not structurally equal to the original")
	}

	// Mutating the clone's child slice must not leak into the original.
	clone.(VLayout).Children[0] = Text{Text: "changed"}
	if got := orig.(VLayout).Children[0].(Text).Text; got != "heading" {
		t.Errorf("original was mutated through the clone, got %q", got)
	}

	payload := clone.(VLayout).Children[4].(Unknown).Payload.(map[string]any)
	payload["src"] = "/other.mp4"
	if got := orig.(VLayout).Children[4].(Unknown).Payload.(map[string]any)["src"]; got != "/v.mp4" {
		t.Errorf("unknown payload was aliased, got %v", got)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Content
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil and text", nil, Text{Text: "x"}, false},
		{"same text", Text{Text: "x"}, Text{Text: "x"}, true},
		{"different kind", HLayout{}, VLayout{}, false},
		{"nil and empty children", HLayout{}, HLayout{Children: []Content{}}, true},
		{"child order", HLayout{Children: []Content{Text{Text: "a"}, Text{Text: "b"}}}, HLayout{Children: []Content{Text{Text: "b"}, Text{Text: "a"}}}, false},
		{"form post url", Form{PostURL: "/a"}, Form{PostURL: "/b"}, false},
		{"if branches", If{Flag: "f", Then: Text{Text: "y"}, Else: Text{Text: "n"}}, If{Flag: "f", Then: Text{Text: "y"}, Else: Text{Text: "N"}}, false},
		{"live interval", Live{URL: "/l", Interval: 1}, Live{URL: "/l", Interval: 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWalkVisitsBothBranchesInPreOrder(t *testing.T) {
	var kinds []Kind
	Walk(sampleTree(), func(c Content) bool {
		kinds = append(kinds, c.Kind())
		return true
	})
	want := []Kind{KindVLayout, KindText, KindHLayout, KindRef, KindIf, KindCtx, KindText, KindForm, KindField, KindLive, "Video"}
	if len(kinds) != len(want) {
		t.Fatalf("visited %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("visit %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestWalkPrune(t *testing.T) {
	count := 0
	Walk(sampleTree(), func(c Content) bool {
		count++
		return c.Kind() != KindHLayout
	})
	// HLayout's Ref, If and the If's branches are skipped.
	if count != 7 {
		t.Errorf("visited %d nodes, want 7", count)
	}
}

func TestHasDirectives(t *testing.T) {
	if !HasDirectives(sampleTree()) {
		t.Error("expected directives in sample tree")
	}
	resolved := VLayout{Children: []Content{Text{Text: "a"}, Menu{Children: []Content{Ref{URL: "/r"}}}}}
	if HasDirectives(resolved) {
		t.Error("expected no directives in resolved tree")
	}
	if HasDirectives(Include{URL: "/x"}) == false {
		t.Error("a bare Include is a directive")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTree())
	if s.Nodes != 11 {
		t.Errorf("Nodes = %d, want 11", s.Nodes)
	}
	if s.Directives != 2 {
		t.Errorf("Directives = %d, want 2", s.Directives)
	}
	if s.Depth != 4 {
		t.Errorf("Depth = %d, want 4", s.Depth)
	}
	if s.Kinds[KindText] != 2 {
		t.Errorf("Kinds[Text] = %d, want 2", s.Kinds[KindText])
	}
	if s.Insecure != 0 {
		t.Errorf("Insecure = %d, want 0", s.Insecure)
	}
}
