// Package matcher ranks library tracks against free-text queries.
//
// Scoring is tokenized Levenshtein similarity: both sides are lowercased, stripped of
// diacritics and punctuation, split into words, and extended with concatenations of
// neighbouring word pairs so "darkside" finds "Dark Side". A query word that is a prefix
// of a track word scores almost as well as an exact hit, which keeps partial input such as
// "bohemian rhap" useful.
//
// The matcher is pure: no I/O, no clock, identical inputs give identical output.
package matcher
