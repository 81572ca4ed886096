package session

// KeyMaterial exposes the secrets Close must wipe.
func (s *Session) KeyMaterial() [][]byte {
	return [][]byte{s.ephPriv[:], s.sendKey, s.recvKey, s.macKey}
}

// SetSequence positions the counters for exhaustion tests.
func (s *Session) SetSequence(send, recv uint64) { s.sendSeq, s.recvSeq = send, recv }
