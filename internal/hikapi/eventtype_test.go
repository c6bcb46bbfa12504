package hikapi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventTypeKnownTokens(t *testing.T) {
	tokens := []string{
		"IO", "VMD", "attendedBaggage", "audioexception", "badvideo",
		"diskerror", "diskfull", "faceSnap", "facedetection", "fielddetection",
		"illAccess", "ipconflict", "linedetection", "nicbroken",
		"recordingfailure", "regionEntrance", "regionExiting",
		"scenechangedetection", "storageDetection", "tamperdetection",
		"unattendedBaggage", "videoloss", "videomismatch",
	}
	for _, tok := range tokens {
		et, err := ParseEventType(tok)
		require.NoError(t, err, tok)
		assert.NotEqual(t, unknownMarker, et.canonical, "token %q parsed as unknown", tok)

		lower, err := ParseEventType(strings.ToLower(tok))
		require.NoError(t, err, tok)
		assert.NotEqual(t, unknownMarker, lower.canonical, "lowercased token %q parsed as unknown", tok)
	}
}

func TestParseEventTypeUnknown(t *testing.T) {
	et, err := ParseEventType("random")
	require.NoError(t, err)
	assert.Equal(t, EventTypeUnknown("random"), et)

	_, err = ParseEventType("random space")
	assert.Error(t, err)

	_, err = ParseEventType("line-detection")
	assert.Error(t, err)
}

func TestEventTypeRoundTrip(t *testing.T) {
	all := []EventType{
		EventTypeIO, EventTypeMotion, EventTypeLineDetection, EventTypeUnattendedBaggage,
		EventTypeAttendedBaggage, EventTypeRegionEntrance, EventTypeRegionExiting,
		EventTypeSceneChangeDetection, EventTypeFieldDetection, EventTypeFaceDetection,
		EventTypeFaceSnap, EventTypeAudioException, EventTypeVideoLoss, EventTypeTamper,
		EventTypeVideoMismatch, EventTypeBadVideo, EventTypeStorageDetection,
		EventTypeRecordingFailure, EventTypeDiskFull, EventTypeDiskError,
		EventTypeNicBroken, EventTypeIPConflict, EventTypeIllegalAccess,
	}
	for _, et := range all {
		lower := strings.ToLower(et.String())
		parsed, err := ParseEventType(lower)
		require.NoError(t, err, et.String())
		assert.Equal(t, et, parsed, "round trip through %q", lower)
	}
}

func TestEventIdentifierString(t *testing.T) {
	assert.Equal(t, "Motion", EventIdentifier{EventType: EventTypeMotion}.String())
	assert.Equal(t, "CH1 Motion", EventIdentifier{Channel: "1", EventType: EventTypeMotion}.String())
}

func TestVideoLossSpecialCase(t *testing.T) {
	assert.True(t, EventTypeVideoLoss.IsVideoLoss())
	assert.False(t, EventTypeMotion.IsVideoLoss())
}
