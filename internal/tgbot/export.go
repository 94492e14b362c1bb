package tgbot

import (
	"strconv"
	"strings"

	"quest-bot/internal/models"
)

// usersCSVHeader фиксирован: на него завязаны внешние выгрузки.
const usersCSVHeader = "tg_id,username,first_name,last_name,first_seen,last_seen,event_count,events_sample,phone"

// BuildUsersCSV собирает выгрузку пользователей. Файл начинается с
// UTF-8 BOM, иначе Excel ломает кириллицу.
func BuildUsersCSV(rows []models.UserExportRow) string {
	var b strings.Builder
	b.WriteString("\ufeff")
	b.WriteString(usersCSVHeader)
	b.WriteString("\n")
	for _, r := range rows {
		b.WriteString(strconv.FormatInt(r.TgID, 10))
		b.WriteString(",")
		b.WriteString(escapeCSV(r.Username))
		b.WriteString(",")
		b.WriteString(escapeCSV(r.FirstName))
		b.WriteString(",")
		b.WriteString(escapeCSV(r.LastName))
		b.WriteString(",")
		b.WriteString(escapeCSV(r.FirstSeen))
		b.WriteString(",")
		b.WriteString(escapeCSV(r.LastSeen))
		b.WriteString(",")
		b.WriteString(strconv.Itoa(r.EventCount))
		b.WriteString(",")
		b.WriteString(escapeCSV(r.EventsSample))
		b.WriteString(",")
		b.WriteString(escapeCSV(r.Phone))
		b.WriteString("\n")
	}
	return b.String()
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
