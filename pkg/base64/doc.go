// Package base64 implements the standard padded base64 encoding with
// precomputed lookup tables.
//
// Each call is self-contained: Encode pads the tail of every buffer it is
// given, and Decode expects whole 4-symbol groups with padding only at the
// very end of its input.
package base64
