// Package verifiertest provides an in-process verifier double for tests.
package verifiertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Claim mirrors the verifier wire format.
type Claim struct {
	Ename string `json:"ename"`
	Cname string `json:"cname"`
	Value string `json:"value"`
}

// Credential mirrors the verifier wire format.
type Credential struct {
	CredentialType string  `json:"credentialType"`
	Claims         []Claim `json:"claims"`
}

// Reply is one scripted answer of the result endpoint. A zero Status means 200.
type Reply struct {
	Status        int
	VerifyResult  bool
	Description   string
	TransactionID string
	Data          []Credential
}

// StudentID returns the demo credential used throughout the tests.
func StudentID() []Credential {
	return []Credential{{
		CredentialType: "StudentID",
		Claims:         []Claim{{Ename: "school", Cname: "School", Value: "National Taiwan University"}},
	}}
}

// Server is a scripted verifier.
type Server struct {
	*httptest.Server

	mu sync.Mutex
	// QRStatus, when non-zero, is returned by /oidvp/qrcode instead of a payload.
	QRStatus int
	// AssignTransactionID makes /oidvp/qrcode answer with its own transaction ID.
	AssignTransactionID string
	// Fallback answers result calls once the script is drained.
	Fallback Reply

	script      []Reply
	qrCalls     int
	resultCalls int
	postCalls   int
	lastRef     string
	tokens      []string
}

// New starts a verifier double. Callers must Close it.
func New() *Server {
	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oidvp/qrcode", s.handleQRCode)
	mux.HandleFunc("/oidvp/result", s.handleResult)
	s.Server = httptest.NewServer(mux)
	return s
}

// Script appends replies served in order by the result endpoint.
func (s *Server) Script(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = append(s.script, replies...)
}

// SetFallback replaces the reply used once the script is drained.
func (s *Server) SetFallback(r Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fallback = r
}

// SetAssignTransactionID makes the qrcode endpoint mint its own transaction ID.
func (s *Server) SetAssignTransactionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.AssignTransactionID = id
}

// SetQRStatus makes the qrcode endpoint fail with status.
func (s *Server) SetQRStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.QRStatus = status
}

func (s *Server) QRCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qrCalls
}

func (s *Server) ResultCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultCalls
}

// ReverifyCalls counts POST /oidvp/result calls.
func (s *Server) ReverifyCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.postCalls
}

func (s *Server) LastRef() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRef
}

// AccessTokens lists the Access-Token header of every call received.
func (s *Server) AccessTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tokens...)
}

func (s *Server) handleQRCode(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.qrCalls++
	s.lastRef = r.URL.Query().Get("ref")
	s.tokens = append(s.tokens, r.Header.Get("Access-Token"))
	status := s.QRStatus
	txID := s.AssignTransactionID
	s.mu.Unlock()

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	if status != 0 {
		writeJSON(w, status, map[string]string{"code": "error", "message": http.StatusText(status)})
		return
	}
	if txID == "" {
		txID = r.URL.Query().Get("transactionId")
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"qrcodeImage":   "data:image/png;base64,iVBORw0KGgo=",
		"transactionId": txID,
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	var txID string
	switch r.Method {
	case http.MethodGet:
		txID = r.URL.Query().Get("transactionId")
	case http.MethodPost:
		var body struct {
			TransactionID string `json:"transactionId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"code": "bad_request", "message": "invalid body"})
			return
		}
		txID = body.TransactionID
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s.mu.Lock()
	if r.Method == http.MethodPost {
		s.postCalls++
	} else {
		s.resultCalls++
	}
	s.tokens = append(s.tokens, r.Header.Get("Access-Token"))
	reply := s.Fallback
	if len(s.script) > 0 {
		reply = s.script[0]
		s.script = s.script[1:]
	}
	s.mu.Unlock()

	if reply.Status != 0 && reply.Status != http.StatusOK {
		writeJSON(w, reply.Status, map[string]string{"code": "error", "message": http.StatusText(reply.Status)})
		return
	}
	if reply.TransactionID == "" {
		reply.TransactionID = txID
	}
	data := reply.Data
	if data == nil {
		data = []Credential{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verifyResult":      reply.VerifyResult,
		"resultDescription": reply.Description,
		"transactionId":     reply.TransactionID,
		"data":              data,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
