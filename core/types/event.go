package types

// Event is the wire representation of a structured state change emitted by the
// auction engine. Attributes are flat string pairs so downstream indexers can
// consume them without schema knowledge.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
