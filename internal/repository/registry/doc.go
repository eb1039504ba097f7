// Package registry persists the set of escalation recipients discovered from
// the delivery collaborator. The store grows monotonically through merge-safe
// set unions and rewrites the full set on every save.
package registry
