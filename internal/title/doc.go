// Package title validates page titles against a configured pattern.
package title
