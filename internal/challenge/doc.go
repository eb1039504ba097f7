// Package challenge generates the arithmetic questions that gate alarm
// silencing: two-digit addition, non-negative subtraction and small-table
// multiplication, selected uniformly.
package challenge
