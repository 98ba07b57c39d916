package gallery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Ticket 外部邮件验证接口签发的访问凭证
type Ticket struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UnmarshalJSON 兼容 RFC3339 字符串与毫秒时间戳两种 expiresAt 格式
func (t *Ticket) UnmarshalJSON(data []byte) error {
	var raw struct {
		Code      string          `json:"code"`
		ExpiresAt json.RawMessage `json:"expiresAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	expiresAt, err := parseExpiresAt(raw.ExpiresAt)
	if err != nil {
		return err
	}
	t.Code = raw.Code
	t.ExpiresAt = expiresAt
	return nil
}

func parseExpiresAt(raw json.RawMessage) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return time.Time{}, err
		}
		if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
			return time.UnixMilli(ms).UTC(), nil
		}
		parsed, err := time.Parse(time.RFC3339, text)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid expiresAt %q", text)
		}
		return parsed, nil
	}
	ms, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expiresAt %s", string(raw))
	}
	return time.UnixMilli(ms).UTC(), nil
}
