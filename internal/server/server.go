// Package server - небольшой HTTP-сервер: здоровье процесса и выгрузка
// CSV по подписанной ссылке из админки.
package server

import (
	"crypto/hmac"
	"log"
	"net/http"
	"time"

	"quest-bot/internal/config"
	"quest-bot/internal/storage"
	"quest-bot/internal/tgbot"
	"quest-bot/internal/util"
)

func New(cfg config.Config, db *storage.DB) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/export/users.csv", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		want := util.HMACSHA256Hex(cfg.ExportSecret, "export:users")
		if !hmac.Equal([]byte(token), []byte(want)) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		rows, err := db.UsersForExport(0)
		if err != nil {
			log.Printf("выгрузка пользователей: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)
		w.Write([]byte(tgbot.BuildUsersCSV(rows)))
	})

	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
