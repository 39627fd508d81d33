package proxy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventAccessors(t *testing.T) {
	ev := Event{"type": "content_selection", "postId": float64(482), "url": "https://x.wordpress.com/p"}
	assert.Equal(t, "content_selection", ev.Type())
	assert.Equal(t, "482", ev.PostID())
	assert.Equal(t, "https://x.wordpress.com/p", ev.URL())

	assert.Equal(t, "7", Event{"postId": "7"}.PostID())
	assert.Equal(t, "", Event{"postId": "unknown"}.PostID())
	assert.Equal(t, "", Event{}.PostID())
}

func TestEventIsSelection(t *testing.T) {
	assert.True(t, Event{"type": "content_selection"}.IsSelection())
	assert.True(t, Event{"type": "click", "postId": "12"}.IsSelection())
	assert.False(t, Event{"type": "click"}.IsSelection())
	assert.False(t, Event{"type": "scroll", "postId": "12"}.IsSelection())
}

func TestLogEviction(t *testing.T) {
	log := NewLog()
	for i := 0; i < EventCapacity+10; i++ {
		log.Append(Event{"n": i})
	}

	events, seq := log.Events()
	require.Len(t, events, EventCapacity)
	assert.Equal(t, uint64(EventCapacity+10), seq)
	assert.Equal(t, 10, events[0]["n"], "oldest entries evicted first")
	assert.Equal(t, EventCapacity+9, events[len(events)-1]["n"])
}

func TestSelectionEviction(t *testing.T) {
	log := NewLog()
	for i := 0; i < SelectionCapacity+5; i++ {
		log.AppendSelection(Event{"n": i})
	}

	selections := log.Selections()
	require.Len(t, selections, SelectionCapacity)
	assert.Equal(t, 5, selections[0]["n"])
}

func TestEventsSince(t *testing.T) {
	log := NewLog()
	log.Append(Event{"n": 1})
	log.Append(Event{"n": 2})

	_, seq := log.Events()
	log.Append(Event{"n": 3})
	log.Append(Event{"n": 4})

	fresh, next := log.EventsSince(seq)
	require.Len(t, fresh, 2)
	assert.Equal(t, 3, fresh[0]["n"])
	assert.Equal(t, 4, fresh[1]["n"])
	assert.Equal(t, seq+2, next)

	none, _ := log.EventsSince(next)
	assert.Empty(t, none)
}

func TestReplaceSelection(t *testing.T) {
	log := NewLog()
	log.AppendSelection(Event{"timestamp": "t1", "postId": "1"})
	log.AppendSelection(Event{"timestamp": "t2", "postId": "2"})

	enriched := Event{"timestamp": "t2", "postId": "2", "enriched": true}
	require.True(t, log.ReplaceSelection("t2", "2", enriched))

	selections := log.Selections()
	require.Len(t, selections, 2)
	assert.Equal(t, true, selections[1]["enriched"], "replaced in place")
	assert.Nil(t, selections[0]["enriched"])
}

func TestReplaceSelectionMixedScalarTypes(t *testing.T) {
	// JSON decoding yields float64 timestamps; enrichment may carry the
	// same value as a different scalar type.
	log := NewLog()
	log.AppendSelection(Event{"timestamp": float64(1700000000), "postId": "42"})

	ok := log.ReplaceSelection(fmt.Sprint(float64(1700000000)), "42", Event{"enriched": true})
	assert.True(t, ok)
}

func TestReplaceSelectionMissing(t *testing.T) {
	log := NewLog()
	log.AppendSelection(Event{"timestamp": "t1", "postId": "1"})
	assert.False(t, log.ReplaceSelection("t9", "9", Event{}))
}
