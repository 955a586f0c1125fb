package session

import (
	"fmt"
	"sync"

	"github.com/desertthunder/songdl/internal/models"
	"github.com/desertthunder/songdl/internal/shared"
)

// QuotaModel mirrors the daily allowance reported by the backend.
//
// Authoritative values only come from [QuotaModel.ApplyServerSnapshot].
// [QuotaModel.DecrementOnSuccess] is a local preview that the next authoritative
// snapshot always overwrites. The backend enforces the quota; this only reflects it.
type QuotaModel struct {
	mu       sync.Mutex
	ceilings shared.QuotaConfig
	snap     models.QuotaSnapshot
	known    bool
	pending  int
}

// NewQuotaModel creates a model showing the free ceiling until the backend reports.
//
// A non-positive free ceiling takes the value from [shared.DefaultConfig].
func NewQuotaModel(ceilings shared.QuotaConfig) *QuotaModel {
	if ceilings.FreeDaily <= 0 {
		ceilings.FreeDaily = shared.DefaultConfig().Quota.FreeDaily
	}
	q := &QuotaModel{ceilings: ceilings}
	q.snap = q.initial()
	return q
}

func (q *QuotaModel) initial() models.QuotaSnapshot {
	total := q.Ceiling(models.Free)
	return models.QuotaSnapshot{Remaining: total, Total: total, Tier: models.Free}
}

// Ceiling is the display ceiling for tier: a fixed daily count or [models.Unlimited].
func (q *QuotaModel) Ceiling(tier models.Tier) int {
	if tier == models.Premium {
		if q.ceilings.PremiumUnlimited || q.ceilings.PremiumDaily <= 0 {
			return models.Unlimited
		}
		return q.ceilings.PremiumDaily
	}
	return q.ceilings.FreeDaily
}

// Snapshot returns the current values, including any unconfirmed local decrement.
func (q *QuotaModel) Snapshot() models.QuotaSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snap
}

// ApplyServerSnapshot replaces the current values with the backend's.
//
// A total of zero (not reported) falls back to the tier ceiling. Remaining is clamped
// to [0, total] when total is numeric.
func (q *QuotaModel) ApplyServerSnapshot(remaining, total int, tier models.Tier) {
	if total == 0 || total < models.Unlimited {
		total = q.Ceiling(tier)
	}
	remaining = max(remaining, 0)
	if total != models.Unlimited {
		remaining = min(remaining, total)
	}

	q.mu.Lock()
	q.snap = models.QuotaSnapshot{Remaining: remaining, Total: total, Tier: tier}
	q.known = true
	q.pending = 0
	q.mu.Unlock()
}

// Apply is [QuotaModel.ApplyServerSnapshot] for a decoded quota response.
func (q *QuotaModel) Apply(resp models.QuotaResponse) {
	q.ApplyServerSnapshot(resp.Remaining, int(resp.Total), resp.Tier)
}

// DecrementOnSuccess lowers remaining by one after a confirmed download. It is a
// no-op for unlimited accounts and at zero.
func (q *QuotaModel) DecrementOnSuccess() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.snap.IsUnlimited() || q.snap.Remaining <= 0 {
		return
	}
	q.snap.Remaining--
	q.pending++
}

// Exhausted reports whether no downloads are left. Start controls should be disabled.
func (q *QuotaModel) Exhausted() bool {
	return q.Snapshot().Exhausted()
}

// Known reports whether an authoritative snapshot has arrived this session.
func (q *QuotaModel) Known() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.known
}

// Pending returns the number of local decrements not yet confirmed by the backend.
func (q *QuotaModel) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// Reset returns to the signed-out preview.
func (q *QuotaModel) Reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.snap = q.initial()
	q.known = false
	q.pending = 0
}

// Message renders tier-aware quota copy.
func (q *QuotaModel) Message() string {
	return QuotaMessage(q.Snapshot())
}

// QuotaMessage renders s for display.
func QuotaMessage(s models.QuotaSnapshot) string {
	switch {
	case s.IsUnlimited():
		return "Premium: unlimited downloads"
	case s.Exhausted() && s.Tier == models.Free:
		return fmt.Sprintf("You've used all %d free downloads today. Upgrade to Premium for more.", s.Total)
	case s.Exhausted():
		return fmt.Sprintf("You've used all %d downloads today. Your allowance resets tomorrow.", s.Total)
	case s.Tier == models.Premium:
		return fmt.Sprintf("Premium: %d of %d downloads left today", s.Remaining, s.Total)
	default:
		return fmt.Sprintf("%d of %d free downloads left today", s.Remaining, s.Total)
	}
}
