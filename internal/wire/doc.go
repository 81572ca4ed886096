// Package wire implements the envelope that carries every message produced by
// the session, message and comparator protocols.
//
// Layout (all integers big-endian):
//
//	0      4        5      6       7          8              12
//	+------+--------+------+-------+----------+--------------+---------+--------+
//	| magic| version| kind | flags | reserved | payload len  | payload | tag?   |
//	+------+--------+------+-------+----------+--------------+---------+--------+
//
// The tag is present, and exactly TagLen bytes, when FlagTagged is set. Parse
// checks the declared payload length against the received byte count before
// it looks at anything past the header.
//
// Payload fields are encoded with Writer and decoded with Reader: variable
// fields carry a 4-byte length prefix, integers are fixed width.
package wire
