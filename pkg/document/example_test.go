package document_test

import (
	"fmt"

	"github.com/matzehuels/pagesetter/pkg/document"
)

func ExampleBuilder() {
	tpl, _ := document.Preset("letter")
	b := document.NewBuilder(tpl)
	exp := b.Add(document.NoParent, document.Node{ID: "experience", Kind: document.KindGroup, Height: 400})
	b.Add(exp, document.Node{ID: "job-1", Kind: document.KindGroupItem, Height: 180})
	b.Add(exp, document.Node{ID: "job-2", Kind: document.KindGroupItem, Height: 180})
	doc := b.Document()

	fmt.Println("valid:", doc.Validate() == nil)
	fmt.Println("usable height:", doc.Template.UsableHeight())
	fmt.Println("group chrome:", doc.Chrome(exp))
	// Output:
	// valid: true
	// usable height: 960
	// group chrome: 40
}

func ExamplePresetNames() {
	fmt.Println(document.PresetNames())
	// Output: [a4 a5 legal letter]
}
