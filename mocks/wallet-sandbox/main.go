package main

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultPort          = "8090"
	defaultVPAPIKey      = "vp-sandbox-key"
	defaultVCAPIKey      = "vc-sandbox-key"
	defaultLatencyMs     = "50"
	defaultVerifyAfterMs = "5000"

	// 1x1 transparent PNG.
	qrcodePNG = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="
)

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type QRCodeResponse struct {
	TransactionID string `json:"transactionId"`
	QRCodeImage   string `json:"qrcodeImage"`
	AuthURI       string `json:"authUri"`
}

type Claim struct {
	Ename string `json:"ename"`
	Cname string `json:"cname"`
	Value string `json:"value"`
}

type Credential struct {
	CredentialType string  `json:"credentialType"`
	Claims         []Claim `json:"claims"`
}

type ResultResponse struct {
	VerifyResult      bool         `json:"verifyResult"`
	ResultDescription string       `json:"resultDescription"`
	TransactionID     string       `json:"transactionId"`
	Data              []Credential `json:"data"`
}

type IssueRequest struct {
	VCUID        string `json:"vcUid"`
	IssuanceDate string `json:"issuanceDate"`
	ExpiredDate  string `json:"expiredDate"`
	Fields       []struct {
		Ename   string `json:"ename"`
		Content string `json:"content"`
	} `json:"fields"`
}

type IssueResponse struct {
	TransactionID string `json:"transactionId"`
	QRCode        string `json:"qrCode"`
	DeepLink      string `json:"deepLink"`
}

var (
	vpAPIKey    = getEnv("VP_API_KEY", defaultVPAPIKey)
	vcAPIKey    = getEnv("VC_API_KEY", defaultVCAPIKey)
	latencyMs   = getEnvInt("LATENCY_MS", defaultLatencyMs)
	verifyAfter = time.Duration(getEnvInt("VERIFY_AFTER_MS", defaultVerifyAfterMs)) * time.Millisecond

	mu           sync.Mutex
	transactions = map[string]time.Time{}
)

func main() {
	port := getEnv("PORT", defaultPort)

	http.HandleFunc("/health", handleHealth)
	http.HandleFunc("/oidvp/qrcode", handleQRCode)
	http.HandleFunc("/oidvp/result", handleResult)
	http.HandleFunc("/api/qrcode/data", handleIssue)

	log.Printf("👛 Mock wallet sandbox starting on port %s", port)
	log.Printf("⏱️  Simulated latency: %dms, wallet answers after %s", latencyMs, verifyAfter)

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatal(err)
	}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "wallet-sandbox",
		"version": "1.0.0",
	})
}

// handleQRCode registers a transaction. HEAD is answered for health probes.
func handleQRCode(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	if !authorized(w, r, vpAPIKey) {
		return
	}
	if r.Method != http.MethodGet {
		sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ref := r.URL.Query().Get("ref")
	if ref == "" {
		sendError(w, "ref is required", http.StatusBadRequest)
		return
	}
	txID := r.URL.Query().Get("transactionId")
	if txID == "" {
		txID = newID()
	}

	mu.Lock()
	transactions[txID] = time.Now()
	mu.Unlock()

	log.Printf("📥 Proof request %s for ref %s", txID, ref)
	writeJSON(w, http.StatusOK, QRCodeResponse{
		TransactionID: txID,
		QRCodeImage:   qrcodePNG,
		AuthURI:       "modadigitalwallet://vp?transactionId=" + txID,
	})
}

// handleResult reports verifyResult=false until VERIFY_AFTER_MS has passed
// since the proof request was created.
func handleResult(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	if !authorized(w, r, vpAPIKey) {
		return
	}

	var txID string
	switch r.Method {
	case http.MethodGet:
		txID = r.URL.Query().Get("transactionId")
	case http.MethodPost:
		var body struct {
			TransactionID string `json:"transactionId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			sendError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		txID = body.TransactionID
	default:
		sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	mu.Lock()
	created, ok := transactions[txID]
	mu.Unlock()
	if !ok {
		sendError(w, "transaction not found", http.StatusNotFound)
		return
	}

	resp := ResultResponse{TransactionID: txID, Data: []Credential{}}
	if time.Since(created) >= verifyAfter {
		resp.VerifyResult = true
		resp.ResultDescription = "success"
		resp.Data = []Credential{{
			CredentialType: "StudentID",
			Claims: []Claim{
				{Ename: "name", Cname: "Name", Value: "Mei-Li Lin"},
				{Ename: "school", Cname: "School", Value: "National Taiwan University"},
			},
		}}
	}
	writeJSON(w, http.StatusOK, resp)
	log.Printf("✅ Result for %s: verified=%v", txID, resp.VerifyResult)
}

func handleIssue(w http.ResponseWriter, r *http.Request) {
	time.Sleep(time.Duration(latencyMs) * time.Millisecond)
	if !authorized(w, r, vcAPIKey) {
		return
	}
	if r.Method != http.MethodPost {
		sendError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.VCUID == "" {
		sendError(w, "vcUid is required", http.StatusBadRequest)
		return
	}
	if strings.Contains(req.IssuanceDate, "-") || strings.Contains(req.ExpiredDate, "-") {
		sendError(w, "dates must be yyyymmdd", http.StatusBadRequest)
		return
	}

	txID := newID()
	log.Printf("📜 Credential offer %s for %s (%d fields)", txID, req.VCUID, len(req.Fields))
	writeJSON(w, http.StatusOK, IssueResponse{
		TransactionID: txID,
		QRCode:        qrcodePNG,
		DeepLink:      "modadigitalwallet://credential_offer?transactionId=" + txID,
	})
}

func authorized(w http.ResponseWriter, r *http.Request, key string) bool {
	token := r.Header.Get("Access-Token")
	if token == "" {
		sendError(w, "missing Access-Token header", http.StatusUnauthorized)
		return false
	}
	if token != key {
		sendError(w, "invalid access token", http.StatusUnauthorized)
		return false
	}
	return true
}

func newID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func sendError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, ErrorResponse{Code: strconv.Itoa(code), Message: message})
	log.Printf("❌ Error response: %d - %s", code, message)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key, defaultValue string) int {
	value := getEnv(key, defaultValue)
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid integer value for %s, using default: %s", key, defaultValue)
		intValue, _ = strconv.Atoi(defaultValue)
	}
	return intValue
}
