// Package extract turns marketplace markup into listing URLs and listing
// records.
//
// Every field is read through an ordered cascade of Selector functions: the
// first selector that yields a non-empty value wins, and a field that no
// selector finds falls back to its default. Selectors are pure functions of
// the parsed document, so extraction of the same markup is repeatable.
package extract
