package hikapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTriggersFlatXML = `<EventTriggersDescription>
<EventTrigger>
<id>1</id>
<eventType>VMD</eventType>
<videoInputChannelID>1</videoInputChannelID>
<eventDescription>Motion Detection</eventDescription>
</EventTrigger>
<EventTrigger>
<id>2</id>
<eventType>IO</eventType>
<inputIOPortID>1</inputIOPortID>
</EventTrigger>
</EventTriggersDescription>`

const sampleTriggersNestedXML = `<EventNotification>
<EventTriggerList>
<EventTrigger>
<id>3</id>
<eventType>videoloss</eventType>
<dynVideoInputChannelID>2</dynVideoInputChannelID>
<eventDescription>Video Loss</eventDescription>
</EventTrigger>
</EventTriggerList>
</EventNotification>`

func TestParseTriggersFlat(t *testing.T) {
	got, err := ParseTriggers([]byte(sampleTriggersFlatXML))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, TriggerItem{
		Identifier:  EventIdentifier{Channel: "1", EventType: EventTypeMotion},
		HikID:       "1",
		Description: "Motion Detection",
	}, got[0])
	assert.Equal(t, TriggerItem{
		Identifier:  EventIdentifier{Channel: "1", EventType: EventTypeIO},
		HikID:       "2",
		Description: "",
	}, got[1])
}

func TestParseTriggersNested(t *testing.T) {
	got, err := ParseTriggers([]byte(sampleTriggersNestedXML))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, EventIdentifier{Channel: "2", EventType: EventTypeVideoLoss}, got[0].Identifier)
}

func TestParseTriggersInvalidEventType(t *testing.T) {
	_, err := ParseTriggers([]byte(`<Root><E><id>1</id><eventType>bad type</eventType></E></Root>`))
	assert.Error(t, err)
}

func TestTriggerFromIdentifier(t *testing.T) {
	tr := TriggerFromIdentifier(EventIdentifier{Channel: "1", EventType: EventTypeVideoLoss})
	assert.Equal(t, "VideoLoss-1", tr.HikID)

	tr2 := TriggerFromIdentifier(EventIdentifier{EventType: EventTypeMotion})
	assert.Equal(t, "Motion", tr2.HikID)
}
