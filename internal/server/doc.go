// Package server is the HTTP API for editing stored family trees.
//
// Routes:
//
//	POST   /trees                                 create (optional name and document)
//	GET    /trees                                 list summaries
//	GET    /trees/{treeID}                        document and layout
//	DELETE /trees/{treeID}
//	GET    /trees/{treeID}/layout                 layout snapshot
//	GET    /trees/{treeID}/export                 export document
//	GET    /trees/{treeID}/svg                    rendered SVG (?interactive=true)
//	POST   /trees/{treeID}/import                 import document or single entity
//	POST   /trees/{treeID}/nodes                  add a person
//	PUT    /trees/{treeID}/nodes/{nodeID}         rename
//	DELETE /trees/{treeID}/nodes/{nodeID}
//	POST   /trees/{treeID}/nodes/{nodeID}/gender  toggle gender
//	PUT    /trees/{treeID}/relations/{a}/{b}      connect, kind relative to a
//	DELETE /trees/{treeID}/relations/{a}/{b}
//	GET    /metrics
//	GET    /health
//
// Every successful edit answers with the recomputed layout and is saved
// through the configured [storage.Store] before the response is written.
// Errors are JSON bodies carrying the error code; IDs of people that no
// longer exist are ignored rather than rejected.
package server
