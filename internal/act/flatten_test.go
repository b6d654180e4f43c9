package act_test

import (
	"fmt"
	"testing"

	"github.com/dgallion1/actgen/internal/act"
	"github.com/dgallion1/actgen/internal/htmldom"
	"github.com/google/go-cmp/cmp"
)

type flatSummary struct {
	ID         string
	Kind       act.Kind
	FieldType  string
	Level      int
	IsFragment bool
}

func summarize(list []act.FlatChrome[hnode]) []flatSummary {
	out := make([]flatSummary, 0, len(list))
	for _, fc := range list {
		out = append(out, flatSummary{fc.ID, fc.Kind, fc.FieldType, fc.Level, fc.IsFragment})
	}
	return out
}

func TestFlatten_LevelsAndKinds(t *testing.T) {
	root := parseBody(t, `<div>`+placeholder("ph_main_edit",
		rendering("r1_edit", `<article>`+
			fmt.Sprintf(fieldOpen, "f1_edit", "rich text")+`<p>body</p>`+fieldClose+
			`<span class="scWebEditInput" id="f2_edit">x</span>`+
			`</article>`))+`</div>`+
		rendering("r2", `<footer></footer>`))

	list, err := act.Flatten[hnode](htmldom.New(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []flatSummary{
		{"ph_main", act.KindPlaceholder, "", 1, true},
		{"r1", act.KindRendering, "", 2, true},
		{"f1", act.KindField, "rich text", 3, true},
		{"f2_edit", act.KindField, "", 3, false},
		{"r2", act.KindRendering, "", 1, true},
	}
	if diff := cmp.Diff(want, summarize(list)); diff != "" {
		t.Errorf("flat list mismatch (-want +got):\n%s", diff)
	}
	if list[3].Tag == nil {
		t.Error("expected simple field to carry its tag")
	}
	if list[0].OpenMarker == nil {
		t.Error("expected fragment to carry its open marker")
	}
}

func TestFlatten_NoMarkers(t *testing.T) {
	root := parseBody(t, `<p>plain page</p>`)

	list, err := act.Flatten[hnode](htmldom.New(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d entries", len(list))
	}
}

func TestFlatten_IgnoresUnrelatedCodeTags(t *testing.T) {
	root := parseBody(t, `<code>fmt.Println()</code><code kind="open"></code>`)

	list, err := act.Flatten[hnode](htmldom.New(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected plain code tags to be ignored, got %d entries", len(list))
	}
}
