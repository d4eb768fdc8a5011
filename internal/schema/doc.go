// Package schema provides the dataset Schema Registry consulted by the query
// validator.
//
// A dataset is identified by an id and has one of a closed set of kinds. The
// kind alone decides which field names are numeric and which are strings:
//
//	Kind       Numeric fields                 String fields
//	----       --------------                 -------------
//	sections   avg pass fail audit year       dept id instructor title uuid
//	rooms      lat lon seats                  fullname shortname number name
//	                                          address type furniture href
//
// The field table is static. Adding a kind means adding a constant and a case
// to Kind.Fields; every switch over Kind is exhaustive.
//
// REGISTRY CONTRACT:
//
// Registry is the read-only lookup the validator uses. Memory is the in-process
// implementation; it is immutable once built and safe for concurrent reads.
// Registries can be loaded from YAML, JSON, or CUE files (LoadFile) or taken
// as a snapshot of the SQLite catalog (package catalog).
//
// Dataset ids may not contain the key separator "_" and may not be blank,
// because query keys take the form "<id>_<field>" and are split on the first
// and only separator.
package schema
