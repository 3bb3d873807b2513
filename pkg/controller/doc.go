// Package controller implements the Strand controller tree and attribute
// binding model.
//
// # Controller Tree
//
// A control system is a tree of Controller nodes. Each node owns named
// Attributes (typed value slots), Commands (callable actions), Scans
// (periodic actions) and child Controllers, either named or - for vector
// nodes - indexed by integer:
//
//	Controller (rack)
//	├── Attribute "ready"
//	├── Scan "poll_status"
//	└── vector Controller "sensors"
//	    ├── [0] Controller with Attribute "temperature"
//	    └── [1] Controller with Attribute "temperature"
//
// Within one node a name may denote only one of attribute, command, scan
// or child; conflicting registrations fail with a *ConfigError.
//
// # Templates
//
// Controller types declare their members once as a Template. Bind clones
// every attribute template into a fresh per-instance Attribute and closes
// every unbound command and scan over the node, so that two instances of
// the same controller type never share mutable state.
//
// # Attribute Read/Write Protocol
//
// Attributes hold a cached value that is always readable without blocking.
// Update is the source-of-truth write path used by IO and scan code; Put
// is the demand path used by transports on behalf of external clients.
// Predicate waiters registered with WaitForPredicate or WaitForValue are
// released by the Update path.
//
// # Source Providers
//
// An Attribute may carry a SourceRef describing how to reach its value in
// an external system. A node registers one Source provider per ref key;
// ConnectSources wires the provider's Send as the attribute's on-put
// callback and its Update as the attribute's periodic refresh binding.
package controller
