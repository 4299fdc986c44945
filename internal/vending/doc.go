// Package vending contains the domain core for scheduled vending services:
// record normalization, point-geometry parsing, single-pass dashboard
// aggregation and past/present partitioning.
//
// Everything in this package is pure and synchronous. Records enter through
// the data-access layer, are projected into display rows, folded into a
// DashboardSummary, or routed into past/present collections. No function here
// performs I/O or holds state between calls.
package vending
