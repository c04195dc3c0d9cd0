// Package api defines the public types of the rivus node contract: events,
// the Node handle, node configuration, observers, and the audit journal.
//
// Applications usually import the root rivus package, which re-exports the
// types defined here together with the runtime constructors. Transport
// implementations (the in-process graph, the redis submodule) build on this
// package directly.
package api
