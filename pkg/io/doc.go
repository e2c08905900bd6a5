// Package io provides CSV and JSON import and export for flow-map models.
//
// # Overview
//
// This package moves models across the process boundary. The formats are
// designed for:
//
//   - Importing raw origin-destination tables produced by statistics tools
//   - Caching laid-out models for faster re-rendering
//   - Round-trip preservation: import, lay out, export, and re-import
//     without losing geometry
//
// # CSV Format
//
// The CSV importer reads origin-destination rows, one flow per line:
//
//	startX,startY,endX,endY,value
//	0,0,10,0,5
//	0,0,5,8,3
//
// An optional sixth column holds the counter-direction value and turns
// the row into a bidirectional flow pair. A header line is skipped when
// its first field is not numeric. Endpoints with exactly equal
// coordinates are merged into a single shared node, so flows leaving the
// same place share one node symbol; each node's value is the sum of the
// values of its touching flows.
//
// # JSON Format
//
// The JSON document carries the full model state:
//
//	{
//	  "nodes": [{"x": 0, "y": 0, "value": 8}],
//	  "flows": [
//	    {"from": 0, "to": 1, "value": 5,
//	     "ctrl": {"x": 5, "y": 2}, "locked": true}
//	  ],
//	  "canvas": {"min": {"x": -5, "y": -5}, "max": {"x": 15, "y": 15}}
//	}
//
// Nodes are referenced by their array index, which equals their arena
// handle. Flows carry their control point, lock flag, end shortenings,
// and, for pairs, a "value2" field. The canvas is written only when one
// was explicitly set; a derived canvas is recomputed on import.
//
// # Import and Export
//
// [ImportCSV], [ImportJSON], and their reader-based forms [ReadCSV] and
// [ReadJSON] construct independent models that can be modified freely.
// [ExportJSON] and [WriteJSON] write the complete model state; exporting
// immediately after importing reproduces the same document.
package io
