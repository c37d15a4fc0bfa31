package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bookmarkTypes(bs []Bookmark) []BookmarkType {
	var types []BookmarkType
	for _, b := range bs {
		types = append(types, b.Type)
	}
	return types
}

func TestBookmarkDetector_NewRecord(t *testing.T) {
	bd := NewBookmarkDetector(5)

	assert.Empty(t, bd.Check(WindowStats{WindowEndTick: 600, Alive: 10, LeaderY: -500}))
	// Not far enough past the record.
	assert.Empty(t, bd.Check(WindowStats{WindowEndTick: 1200, Alive: 10, LeaderY: -550}))

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1800, Alive: 10, LeaderY: -700})
	require.Len(t, bookmarks, 1)
	assert.Equal(t, BookmarkNewRecord, bookmarks[0].Type)
	assert.Equal(t, int32(1800), bookmarks[0].Tick)
}

func TestBookmarkDetector_AllDamagedOnce(t *testing.T) {
	bd := NewBookmarkDetector(5)

	bd.Check(WindowStats{WindowEndTick: 600, Alive: 3, Damaged: 7, LeaderY: -100})
	got := bd.Check(WindowStats{Generation: 4, WindowEndTick: 1200, Alive: 0, Damaged: 10, LeaderY: -100})
	require.Contains(t, bookmarkTypes(got), BookmarkAllDamaged)
	for _, b := range got {
		assert.Equal(t, 4, b.Generation)
	}

	got = bd.Check(WindowStats{WindowEndTick: 1800, Alive: 0, Damaged: 10, LeaderY: -100})
	assert.NotContains(t, bookmarkTypes(got), BookmarkAllDamaged)
}

func TestBookmarkDetector_LeaderStall(t *testing.T) {
	bd := NewBookmarkDetector(3)

	var stalls int
	for i := 0; i < 6; i++ {
		got := bd.Check(WindowStats{WindowEndTick: int32(i * 600), Alive: 5, LeaderY: -300})
		for _, b := range got {
			if b.Type == BookmarkLeaderStall {
				stalls++
			}
		}
	}
	assert.Equal(t, 1, stalls, "stall should fire once while stuck")

	// Moving again re-arms the detector.
	bd.Check(WindowStats{WindowEndTick: 4000, Alive: 5, LeaderY: -350})
	for i := 0; i < 3; i++ {
		got := bd.Check(WindowStats{WindowEndTick: int32(5000 + i*600), Alive: 5, LeaderY: -350})
		for _, b := range got {
			if b.Type == BookmarkLeaderStall {
				stalls++
			}
		}
	}
	assert.Equal(t, 2, stalls)
}

func TestBookmarkDetector_NoStallWhenEveryoneIsDamaged(t *testing.T) {
	bd := NewBookmarkDetector(2)
	for i := 0; i < 4; i++ {
		got := bd.Check(WindowStats{WindowEndTick: int32(i * 600), Damaged: 10, LeaderY: -300})
		assert.NotContains(t, bookmarkTypes(got), BookmarkLeaderStall)
	}
}
