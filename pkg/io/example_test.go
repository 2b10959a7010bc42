package io_test

import (
	"fmt"
	"os"

	"github.com/matzehuels/kintree/pkg/io"
	"github.com/matzehuels/kintree/pkg/layout"
	"github.com/matzehuels/kintree/pkg/tree"
)

func ExampleParseImport() {
	doc, err := io.ParseImport([]byte(`{"nodes":[{"id":1,"name":"X","gender":"M"}],"relationships":[]}`))
	if err != nil {
		fmt.Println(err)
		return
	}

	t := tree.New()
	doc.Apply(t)
	snap := layout.Compute(t, layout.DefaultOptions())
	fmt.Println("Nodes:", len(snap.Nodes))
	fmt.Println("Edges:", len(snap.Edges))
	// Output:
	// Nodes: 1
	// Edges: 0
}

func ExampleWriteJSON() {
	t := tree.New()
	mom := t.AddNode("Mom", tree.GenderFemale)
	kid := t.AddNode("Kid", tree.GenderMale)
	_ = t.Connect(kid, mom, tree.KindChild, 75)

	if err := io.WriteJSON(t, os.Stdout); err != nil {
		fmt.Println(err)
	}
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": 1,
	//       "name": "Mom",
	//       "gender": "F"
	//     },
	//     {
	//       "id": 2,
	//       "name": "Kid",
	//       "gender": "M"
	//     }
	//   ],
	//   "relationships": [
	//     {
	//       "type": "parent",
	//       "from": 1,
	//       "to": 2,
	//       "closeness": 75
	//     }
	//   ]
	// }
}
