// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/insightq/internal/schema"
)

// Registry returns the standard test registry: a "sections" dataset of kind
// sections and a "rooms" dataset of kind rooms.
func Registry(t testing.TB) *schema.Memory {
	t.Helper()
	reg, err := schema.NewMemory(
		schema.Dataset{ID: "sections", Kind: schema.KindSections, Rows: 64612},
		schema.Dataset{ID: "rooms", Kind: schema.KindRooms, Rows: 364},
	)
	require.NoError(t, err)
	return reg
}

// RegistryYAML is the standard test registry as a registry file.
const RegistryYAML = `datasets:
  - id: sections
    kind: sections
    rows: 64612
  - id: rooms
    kind: rooms
    rows: 364
`
