package handlers

import (
	"encoding/json"
	"net/http"
	"regexp"
)

// KRX 종목코드 (숫자 6자리, 일부 신규 코드는 영문 포함)
var stockCodePattern = regexp.MustCompile(`^[0-9A-Z]{6}$`)

func validCode(code string) bool {
	return stockCodePattern.MatchString(code)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func respondMarkdown(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(text))
}
