package relay

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"themis/internal/domain"
	"themis/internal/logger"
	"themis/internal/store"
	"themis/keys"
)

const (
	// DefaultMaxQueue bounds the envelopes held per mailbox.
	DefaultMaxQueue = 1024
	// maxBody bounds request bodies; the largest envelope plus JSON overhead.
	maxBody = 24 << 20
	// defaultLimit applies when GET /msg has no limit.
	defaultLimit = 64
)

// sendRequest is the body of POST /msg/{to}.
type sendRequest struct {
	From domain.PeerID `json:"from"`
	Data []byte        `json:"data"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type ackRequest struct {
	From  domain.PeerID `json:"from,omitempty"`
	Count int           `json:"count"`
}

type keyBody struct {
	Key []byte `json:"key"`
}

// Server is an in-memory relay.
type Server struct {
	log      logger.Logger
	maxQueue int
	now      func() time.Time

	mu    sync.Mutex
	boxes map[domain.PeerID][]domain.Envelope
	keys  map[domain.PeerID][]byte
}

// NewServer returns an empty relay that queues at most maxQueue envelopes
// per recipient.
func NewServer(log logger.Logger, maxQueue int) *Server {
	if maxQueue <= 0 {
		maxQueue = DefaultMaxQueue
	}
	return &Server{
		log:      log,
		maxQueue: maxQueue,
		now:      time.Now,
		boxes:    make(map[domain.PeerID][]domain.Envelope),
		keys:     make(map[domain.PeerID][]byte),
	}
}

// Handler returns the HTTP routes of the relay.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /msg/{to}", s.handleSend)
	mux.HandleFunc("GET /msg/{to}", s.handleFetch)
	mux.HandleFunc("POST /msg/{to}/ack", s.handleAck)
	mux.HandleFunc("PUT /keys/{id}", s.handlePutKey)
	mux.HandleFunc("GET /keys/{id}", s.handleGetKey)
	return mux
}

// pathID extracts and validates a peer id path value.
func pathID(w http.ResponseWriter, r *http.Request, name string) (domain.PeerID, bool) {
	id := domain.PeerID(r.PathValue(name))
	if !store.ValidPeerID(id) {
		http.Error(w, store.ErrBadPeerID.Error(), http.StatusBadRequest)
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		http.Error(w, "bad request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	to, ok := pathID(w, r, "to")
	if !ok {
		return
	}
	var req sendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !store.ValidPeerID(req.From) || len(req.Data) == 0 {
		http.Error(w, "sender and data are required", http.StatusBadRequest)
		return
	}

	env := domain.Envelope{
		ID:       uuid.NewString(),
		From:     req.From,
		To:       to,
		Data:     req.Data,
		Received: s.now().UTC(),
	}
	s.mu.Lock()
	if len(s.boxes[to]) >= s.maxQueue {
		s.mu.Unlock()
		http.Error(w, "mailbox full", http.StatusTooManyRequests)
		return
	}
	s.boxes[to] = append(s.boxes[to], env)
	s.mu.Unlock()

	s.log.Debugf("queued %s: %s -> %s (%d bytes)", env.ID, env.From, env.To, len(env.Data))
	writeJSON(w, http.StatusCreated, sendResponse{ID: env.ID})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	to, ok := pathID(w, r, "to")
	if !ok {
		return
	}
	from := domain.PeerID(r.URL.Query().Get("from"))
	limit := defaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	s.mu.Lock()
	out := make([]domain.Envelope, 0)
	for _, env := range s.boxes[to] {
		if len(out) == limit {
			break
		}
		if from == "" || env.From == from {
			out = append(out, env)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	to, ok := pathID(w, r, "to")
	if !ok {
		return
	}
	var req ackRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Count < 0 {
		http.Error(w, "count must not be negative", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	box := s.boxes[to]
	kept := box[:0]
	dropped := 0
	for _, env := range box {
		if dropped < req.Count && (req.From == "" || env.From == req.From) {
			dropped++
			continue
		}
		kept = append(kept, env)
	}
	if len(kept) == 0 {
		delete(s.boxes, to)
	} else {
		s.boxes[to] = kept
	}
	s.mu.Unlock()

	s.log.Debugf("acked %d envelopes for %s", dropped, to)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePutKey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body keyBody
	if !decodeBody(w, r, &body) {
		return
	}
	pub, err := keys.ParsePublicKey(body.Key)
	if err != nil {
		http.Error(w, "invalid public key: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.keys[id]; ok {
		if old, err := keys.ParsePublicKey(prev); err == nil && old.Equal(pub) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Error(w, "a different key is already published for "+string(id), http.StatusConflict)
		return
	}
	s.keys[id] = pub.Marshal()
	s.log.Infof("published %s key for %s (%s)", pub.Algorithm(), id, pub.Fingerprint())
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	s.mu.Lock()
	k, ok := s.keys[id]
	s.mu.Unlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, keyBody{Key: k})
}
