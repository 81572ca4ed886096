// Package peer publishes the local public key and pins the keys of peers.
//
// It uploads and downloads keys through the RelayClient and records them in
// the PeerDirectory used to authenticate sessions and messages.
package peer
