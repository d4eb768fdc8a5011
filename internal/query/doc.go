// Package query defines the dataset query language as Go types and parses
// untyped documents into them.
//
// WIRE FORMAT:
//
// A query arrives as an untyped JSON-like document:
//
//	{
//	  "WHERE": {"AND": [{"GT": {"sections_avg": 90}}, {"IS": {"sections_dept": "cp*"}}]},
//	  "TRANSFORMATIONS": {
//	    "GROUP": ["sections_dept"],
//	    "APPLY": [{"maxAvg": {"MAX": "sections_avg"}}]
//	  },
//	  "OPTIONS": {
//	    "COLUMNS": ["sections_dept", "maxAvg"],
//	    "ORDER": {"dir": "DOWN", "keys": ["maxAvg"]}
//	  }
//	}
//
// Parse checks shape only: required and permitted keys, list vs object,
// operator names, literal types, wildcard placement. It does not consult a
// registry. Resolving keys against a dataset is the job of package validate.
//
// SEALED INTERFACES:
//
// Filter and Order are sealed with marker methods, so the set of node kinds
// is closed:
//
//	switch f := filter.(type) {
//	case Empty:
//	case Logic:
//	case Not:
//	case Compare:
//	case Match:
//	}
//
// ERRORS:
//
// Every rejection is a *ValidationError carrying a code, the path of the
// offending node (e.g. "WHERE.AND[1].IS") and a message. All of them match
// ErrInvalidQuery with errors.Is.
package query
