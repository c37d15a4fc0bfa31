package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkNewRecord   BookmarkType = "new_record"
	BookmarkAllDamaged  BookmarkType = "all_damaged"
	BookmarkLeaderStall BookmarkType = "leader_stall"
)

const (
	// recordMargin is how far past the previous best the leader must get
	// before a new record is bookmarked.
	recordMargin = 100.0
	// stallDistance is the leader travel below which a full history counts as stalled.
	stallDistance = 1.0
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Generation  int          `csv:"generation"`
	Tick        int32        `csv:"tick"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"tick", b.Tick,
		"description", b.Description,
	)
}

// BookmarkDetector detects interesting moments in one generation.
// Start a new detector for every generation.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []WindowStats
	historySize int
	historyIdx  int
	historyFull bool

	recordY    float64
	hasRecord  bool
	allDamaged bool
	stalled    bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 2 {
		historySize = 2
	}
	return &BookmarkDetector{
		history:     make([]WindowStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkNewRecord(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkAllDamaged(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)

	if b := bd.checkLeaderStall(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats WindowStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) checkNewRecord(stats WindowStats) *Bookmark {
	if stats.Alive+stats.Damaged == 0 {
		return nil
	}
	if !bd.hasRecord {
		bd.recordY = stats.LeaderY
		bd.hasRecord = true
		return nil
	}
	if stats.LeaderY >= bd.recordY-recordMargin {
		return nil
	}

	old := bd.recordY
	bd.recordY = stats.LeaderY
	return &Bookmark{
		Type:        BookmarkNewRecord,
		Generation:  stats.Generation,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Leader reached y=%.0f, %.0f past the previous record", stats.LeaderY, old-stats.LeaderY),
	}
}

func (bd *BookmarkDetector) checkAllDamaged(stats WindowStats) *Bookmark {
	if bd.allDamaged || stats.Alive > 0 || stats.Damaged == 0 {
		return nil
	}
	bd.allDamaged = true
	return &Bookmark{
		Type:        BookmarkAllDamaged,
		Generation:  stats.Generation,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("All %d cars damaged", stats.Damaged),
	}
}

// checkLeaderStall fires once when the leader has not moved over a full
// history while cars are still alive. It re-arms when the leader moves again.
func (bd *BookmarkDetector) checkLeaderStall(stats WindowStats) *Bookmark {
	if !bd.historyFull || stats.Alive == 0 {
		return nil
	}

	lo, hi := bd.history[0].LeaderY, bd.history[0].LeaderY
	for _, h := range bd.history[1:] {
		lo = min(lo, h.LeaderY)
		hi = max(hi, h.LeaderY)
	}
	if hi-lo >= stallDistance {
		bd.stalled = false
		return nil
	}
	if bd.stalled {
		return nil
	}

	bd.stalled = true
	return &Bookmark{
		Type:        BookmarkLeaderStall,
		Generation:  stats.Generation,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("Leader stuck near y=%.0f for %d windows", stats.LeaderY, bd.historySize),
	}
}
