package config

import "testing"

func TestFromEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("ADMIN_IDS", "10, 20,")
	t.Setenv("OPERATOR_IDS", "")
	t.Setenv("OPERATOR_CHAT_ID", "-100500")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("EXPORT_SECRET", "")
	t.Setenv("BASE_PUBLIC_URL", "https://bot.example.com/")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if !c.IsAdmin(10) || !c.IsAdmin(20) || c.IsAdmin(30) {
		t.Errorf("админы: %v", c.AdminIDs)
	}
	// операторы по умолчанию совпадают с админами
	if !c.OperatorIDs[10] {
		t.Errorf("операторы: %v", c.OperatorIDs)
	}
	if c.OperatorChatID != -100500 {
		t.Errorf("операторский чат: %d", c.OperatorChatID)
	}
	if c.DatabasePath == "" || c.HTTPAddr == "" || c.ExportSecret == "" {
		t.Errorf("дефолты не применились: %+v", c)
	}
	if c.BasePublicURL != "https://bot.example.com" {
		t.Errorf("хвостовой слэш не срезан: %q", c.BasePublicURL)
	}
}

func TestFromEnvRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	if _, err := FromEnv(); err == nil {
		t.Error("пустой BOT_TOKEN должен быть ошибкой")
	}
}

func TestParseIDSet(t *testing.T) {
	m := parseIDSet(" 1, 2,мусор, 3 ")
	if len(m) != 3 || !m[1] || !m[2] || !m[3] {
		t.Errorf("parseIDSet: %v", m)
	}
	if len(parseIDSet("")) != 0 {
		t.Error("пустая строка должна давать пустой набор")
	}
}
