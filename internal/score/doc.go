// Package score defines the domain types shared by the comparison pipeline and
// the ports through which it reaches the external score analysis engine.
//
// A Document is a parsed score owned by one comparison. An AnnotatedScore binds
// a Document to the DetailLevel it will be compared at and never changes after
// construction. Operations are produced only by a DiffEngine and are read-only
// downstream.
//
// The Loader, Annotator, DiffEngine, and Exporter interfaces isolate the
// orchestration code from the engine so tests can substitute stubs.
package score
