package rest

import "net/http"

const welcomeText = "Welcome to Adventurers Arena API"

func pingHandler(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "pong")
}

func welcomeHandler(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, welcomeText)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(text)); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}
