package testutil

// FixedTraceID returns the same trace id every time.
//
// CLI responses carry a trace id; a fixed one makes JSON output
// byte-identical across runs so it can be compared against golden files.
//
// Thread-safety: FixedTraceID is stateless and safe for concurrent use.
type FixedTraceID struct {
	id string
}

// NewFixedTraceID creates a fixed trace id generator.
// If id is empty, Generate returns "test-trace-default".
func NewFixedTraceID(id string) *FixedTraceID {
	if id == "" {
		id = "test-trace-default"
	}
	return &FixedTraceID{id: id}
}

// Generate returns the fixed trace id.
func (g *FixedTraceID) Generate() string {
	return g.id
}
