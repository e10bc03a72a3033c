// Package pattern implements ordered first-match glob filtering for URLs.
//
// It backs two decisions in the checker: whether a discovered URL is eligible
// to be fetched at all (include/exclude lists), and whether a configured title
// pattern applies to a page. Matching is pure and side-effect free; the same
// pattern list always yields the same answer for the same candidate.
package pattern
