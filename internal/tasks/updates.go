package tasks

import (
	"fmt"
)

// ProgressUpdate represents a transfer event.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	ItemID  string // Item the event belongs to
	Phase   Phase  // Transfer phase after the event
	Percent int    // Body progress, 0-100
	Step    int    // Completed items within a batch (zero outside batches)
	Total   int    // Items in the batch
	Message string // Human-readable message for display
	Data    any    // Optional event data for advanced UIs
}

// Phase is the lifecycle of a single transfer.
type Phase int

const (
	Idle Phase = iota
	InFlight
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func startedUpdate(itemID string) ProgressUpdate {
	return ProgressUpdate{
		ItemID:  itemID,
		Phase:   InFlight,
		Message: fmt.Sprintf("Downloading %s...", itemID),
	}
}

func percentUpdate(itemID string, percent int) ProgressUpdate {
	return ProgressUpdate{
		ItemID:  itemID,
		Phase:   InFlight,
		Percent: percent,
		Message: fmt.Sprintf("Downloading %s (%d%%)", itemID, percent),
	}
}

func succeededUpdate(st TransferState) ProgressUpdate {
	return ProgressUpdate{
		ItemID:  st.ItemID,
		Phase:   Succeeded,
		Percent: 100,
		Message: fmt.Sprintf("✓ %s", st.ItemID),
		Data:    st,
	}
}

func failedUpdate(st TransferState) ProgressUpdate {
	return ProgressUpdate{
		ItemID:  st.ItemID,
		Phase:   Failed,
		Percent: st.Progress,
		Message: fmt.Sprintf("✗ %s: %s", st.ItemID, st.Message),
		Data:    st,
	}
}

func batchUpdate(step, total int, res JobResult) ProgressUpdate {
	phase, mark := Succeeded, "✓"
	switch {
	case res.Skipped:
		phase, mark = InFlight, "…"
	case res.Err != nil:
		phase, mark = Failed, "✗"
	}

	name := res.Job.Song.DisplayName()
	if name == "" {
		name = res.Job.ItemID
	}

	return ProgressUpdate{
		ItemID:  res.Job.ItemID,
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, name),
		Data:    res,
	}
}
