package sheets

import (
	"quest-bot/internal/models"
	"quest-bot/internal/util"
)

var (
	subscriptionHeaders = []interface{}{"tg_id", "username", "first_name", "last_name", "started_at"}
	leadHeaders         = []interface{}{"type", "tg_id", "username", "name", "phone", "game_name", "participants_count", "comment", "created_at"}
)

func (c *Client) AppendSubscription(tgID int64, username, firstName, lastName string) error {
	return c.appendRow(SheetSubscriptions,
		[]interface{}{tgID, username, firstName, lastName, util.NowStamp()},
		subscriptionHeaders,
	)
}

func (c *Client) AppendLead(l models.Lead) error {
	return c.appendRow(SheetLeads,
		[]interface{}{"игра", l.TgID, l.Username, l.Name, l.Phone, l.GameName, l.Participants, l.Comment, util.NowStamp()},
		leadHeaders,
	)
}

func (c *Client) AppendHolidayOrder(o models.HolidayOrder) error {
	return c.appendRow(SheetLeads,
		[]interface{}{"квест_праздник", o.TgID, o.Username, o.Name, o.Phone, "", "", "", util.NowStamp()},
		leadHeaders,
	)
}
