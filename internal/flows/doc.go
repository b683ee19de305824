// Package flows holds the orchestration behind each Engine operation.
//
// Each Run function takes a typed dependency struct of function fields and
// returns results without side effects beyond those dependencies: store calls,
// metric increments and audit emission. Nil hooks default to no-ops, a nil
// store hook yields the EngineNotReady error.
//
// Flows own no resources and hold no state between calls. They import the
// store packages for their value types but never the root package.
package flows
