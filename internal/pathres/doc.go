// Package pathres computes where generated scripts live and how they refer
// to the assets they load.
//
// Every path entering the package is canonicalized exactly once by Canonical:
// made absolute, cleaned of "." and ".." segments, converted to the host
// separator, and given an upper-case volume name. Relativity is only ever
// computed between canonical paths, so a reference produced by Reference
// always joins back onto the script directory to yield the original asset.
package pathres
