// Package value implements the scalar and per-event array values produced by
// evaluating cut expressions.
//
// A Value is either a scalar or a fixed-length array of one element kind:
// bool, int64 or float64. Operations are applied elementwise; a scalar operand
// is broadcast against an array. Arrays of different lengths are never
// broadcast and produce a shape error.
//
// Promotion follows the usual numeric rules: bools act as 0 and 1 in
// arithmetic, int with int stays int for + - and *, any float operand makes
// the result float, and division always yields float. Division by zero gives
// ±Inf or NaN rather than an error.
package value
