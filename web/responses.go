package web

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// jsonDecode decodes a size-capped JSON body into dst.
func jsonDecode(r io.Reader, dst any) error {
	return json.NewDecoder(io.LimitReader(r, maxBodyBytes)).Decode(dst)
}

// Message is the envelope of simple status responses.
type Message struct {
	Type    string `json:"type"` // "error", etc
	Message string `json:"message"`
}

// EncodeWriteJSON encodes payload as a JSON stream into the response.
func EncodeWriteJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode) // response header sent & frozen
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[ERROR] failed to write JSON to response: %v", err)
	}
}

// WriteSimpleErrorJSON wraps msg into an error Message response.
func WriteSimpleErrorJSON(w http.ResponseWriter, statusCode int, msg string) {
	EncodeWriteJSON(w, statusCode, Message{Type: "error", Message: msg})
}

// WritePDFBytes writes PDF bytes with inline content disposition.
func WritePDFBytes(w http.ResponseWriter, filename string, pdfBytes []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdfBytes); err != nil {
		log.Printf("[ERROR] writing PDF to response: %v", err)
	}
}
