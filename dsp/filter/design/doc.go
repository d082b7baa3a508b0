// Package design computes biquad coefficients from user units.
//
// The peaking EQ follows the RBJ audio EQ cookbook. Inputs are sanitized
// rather than rejected: frequencies are pulled inside (0, Nyquist), Q is
// floored at [MinQ] and a non-positive gain factor becomes unity, so every
// call returns a stable section.
package design
