package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Unlimited is the Total sentinel for accounts without a daily ceiling.
const Unlimited = -1

// Tier is the account class. It only affects quota ceilings and messaging.
type Tier int

const (
	Free Tier = iota
	Premium
)

func (t Tier) String() string {
	switch t {
	case Premium:
		return "premium"
	default:
		return "free"
	}
}

// ParseTier maps a wire value onto a Tier; anything unknown is Free.
func ParseTier(s string) Tier {
	if strings.EqualFold(strings.TrimSpace(s), "premium") {
		return Premium
	}
	return Free
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tier must be a string: %w", err)
	}
	*t = ParseTier(s)
	return nil
}

// QuotaSnapshot is the daily download allowance as last reported by the backend.
//
// Remaining never exceeds Total when Total is numeric.
type QuotaSnapshot struct {
	Remaining int  `json:"remaining"`
	Total     int  `json:"total"` // positive, or Unlimited
	Tier      Tier `json:"tier"`
}

// IsUnlimited reports whether the snapshot has no ceiling.
func (q QuotaSnapshot) IsUnlimited() bool {
	return q.Total == Unlimited
}

// Exhausted reports whether no downloads are left today.
func (q QuotaSnapshot) Exhausted() bool {
	return !q.IsUnlimited() && q.Remaining <= 0
}

// QuotaResponse is the wire shape of GET /api/user/quota.
type QuotaResponse struct {
	Remaining int        `json:"remaining"`
	Total     QuotaTotal `json:"total"`
	Tier      Tier       `json:"tier"`
}

// QuotaTotal decodes a numeric total, null, or "unlimited".
//
// Zero means the backend sent no total.
type QuotaTotal int

func (q *QuotaTotal) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	switch {
	case raw == "null":
		*q = 0
		return nil
	case strings.HasPrefix(raw, `"`):
		s, err := strconv.Unquote(raw)
		if err != nil {
			return fmt.Errorf("invalid quota total %s: %w", raw, err)
		}
		if strings.EqualFold(s, "unlimited") {
			*q = Unlimited
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid quota total %q", s)
		}
		*q = QuotaTotal(n)
		return nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid quota total %s", raw)
	}
	*q = QuotaTotal(n)
	return nil
}

func (q QuotaTotal) MarshalJSON() ([]byte, error) {
	if q == Unlimited {
		return []byte(`"unlimited"`), nil
	}
	return []byte(strconv.Itoa(int(q))), nil
}
