// Package normalisers provides implementations of the Normaliser interface
// for rich document formats. Each normaliser turns one format into plain
// text which the chunker then splits into line windows.
//
// Normalisers are registered with a Registry at startup.
package normalisers
