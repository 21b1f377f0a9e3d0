package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// Notice categories.
const (
	NoticeSuccess = "success"
	NoticeDanger  = "danger"
	NoticeInfo    = "info"
	NoticeWarning = "warning"
)

const (
	noticesCookie = "notices"
	noticesMaxAge = 300
)

// Notice is a one-shot message shown on the next view.
type Notice struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func decodeNotices(raw string) []Notice {
	if raw == "" {
		return nil
	}
	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var notices []Notice
	if err := json.Unmarshal(data, &notices); err != nil {
		return nil
	}
	return notices
}

func encodeNotices(notices []Notice) (string, error) {
	data, err := json.Marshal(notices)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func setNoticesCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(noticesCookie, value, maxAge, "/", "", false, true)
}

// addNotice queues a notice for the next view, keeping any not yet shown.
func addNotice(c *gin.Context, category, message string) {
	raw, _ := c.Cookie(noticesCookie)
	notices := append(decodeNotices(raw), Notice{Category: category, Message: message})
	value, err := encodeNotices(notices)
	if err != nil {
		return
	}
	setNoticesCookie(c, value, noticesMaxAge)
}

// takeNotices returns the pending notices and clears them.
func takeNotices(c *gin.Context) []Notice {
	raw, err := c.Cookie(noticesCookie)
	if err != nil || raw == "" {
		return []Notice{}
	}
	setNoticesCookie(c, "", -1)
	notices := decodeNotices(raw)
	if notices == nil {
		return []Notice{}
	}
	return notices
}
