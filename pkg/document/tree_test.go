package document

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleTree = `{
  "template": {"name": "a4"},
  "blocks": [
    {"id": "header", "kind": "root-block", "height": 120, "keepWithNext": true},
    {"id": "experience", "kind": "group", "height": 420, "orphans": 2, "widows": 2,
     "children": [
       {"id": "job-1", "kind": "group-item", "height": 140},
       {"id": "job-2", "kind": "group-item", "height": 140},
       {"id": "job-3", "kind": "group-item", "height": 140}
     ]},
    {"id": "skills", "kind": "root-block", "height": 200, "breakBefore": "before",
     "meta": {"grid": true, "label": "Skills"}}
  ]
}`

func TestRead(t *testing.T) {
	doc, err := Read(strings.NewReader(sampleTree))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if doc.Template.Width != 794 || doc.Template.Height != 1123 {
		t.Errorf("template = %+v, want a4 dimensions", doc.Template)
	}
	if len(doc.Nodes) != 6 {
		t.Fatalf("len(Nodes) = %d, want 6", len(doc.Nodes))
	}

	exp := doc.Nodes[doc.IndexOf("experience")]
	gp := exp.GroupPolicy()
	if !gp.AllowSplit || gp.Orphans != 2 || gp.Widows != 2 {
		t.Errorf("group policy = %+v, want split with 2/2", gp)
	}

	hdr := doc.Nodes[doc.IndexOf("header")]
	if !hdr.Policy.KeepWithNext || hdr.Policy.BreakBefore != BreakBeforeAuto {
		t.Errorf("header policy = %+v", hdr.Policy)
	}
	if got := doc.Nodes[doc.IndexOf("skills")].Policy.BreakBefore; got != BreakBeforePage {
		t.Errorf("skills breakBefore = %v, want before", got)
	}
}

func TestReadDefaults(t *testing.T) {
	doc, err := Read(strings.NewReader(`{"template":{}, "blocks":[{"id":"g","kind":"group","height":0}]}`))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got := doc.Nodes[0].GroupPolicy(); got != DefaultGroupPolicy() {
		t.Errorf("GroupPolicy() = %+v, want defaults", got)
	}
	if got := doc.Nodes[0].Policy; got != DefaultPolicy() {
		t.Errorf("Policy = %+v, want defaults", got)
	}
}

func TestReadRejects(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason error
	}{
		{"group attrs on block", `{"blocks":[{"id":"a","kind":"root-block","height":1,"orphans":2}]}`, ErrInvalidPolicy},
		{"unknown kind", `{"blocks":[{"id":"a","kind":"column","height":1}]}`, ErrUnknownKind},
		{"negative height", `{"blocks":[{"id":"a","kind":"plain","height":-4}]}`, ErrNegativeHeight},
		{"duplicate", `{"blocks":[{"id":"a","kind":"plain","height":1},{"id":"a","kind":"plain","height":1}]}`, ErrDuplicateID},
		{"unknown preset", `{"template":{"name":"tabloid"},"blocks":[]}`, ErrInvalidTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input))
			if !errors.Is(err, tt.reason) {
				t.Errorf("Read() error = %v, want %v", err, tt.reason)
			}
		})
	}
}

func TestTreeRoundTrip(t *testing.T) {
	doc, err := Read(strings.NewReader(sampleTree))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	data, err := Marshal(&doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	again, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	data2, err := Marshal(&again)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !bytes.Equal(data, data2) {
		t.Errorf("round trip not stable:\n%s\n---\n%s", data, data2)
	}
}

func TestWriteReadFile(t *testing.T) {
	doc, err := Read(strings.NewReader(sampleTree))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	path := filepath.Join(t.TempDir(), "cv.json")
	if err := WriteFile(&doc, path); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got.Len() != doc.Len() {
		t.Errorf("Len() = %d, want %d", got.Len(), doc.Len())
	}
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile(missing) = nil error")
	}
}
