// Package session opens Secure Sessions with known peers over the relay.
//
// It loads the local identity, resolves the peer through the directory,
// negotiates as initiator or responder, and hands back a Channel that wipes
// all key material on Close.
package session
