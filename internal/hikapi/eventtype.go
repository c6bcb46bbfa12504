package hikapi

import (
	"fmt"
	"strings"
)

// EventType is the taxonomy of alert/trigger kinds a Hikvision device can
// report. Unrecognized-but-well-formed tokens are preserved verbatim via
// EventTypeUnknown rather than rejected, since new camera firmwares
// regularly introduce event types ahead of any bridge update.
type EventType struct {
	canonical string // "" only for the zero value
	unknown   string // set when canonical == unknownMarker
}

const unknownMarker = "\x00unknown"

var (
	EventTypeIO                   = EventType{canonical: "Io"}
	EventTypeMotion               = EventType{canonical: "Motion"}
	EventTypeLineDetection        = EventType{canonical: "LineDetection"}
	EventTypeUnattendedBaggage    = EventType{canonical: "UnattendedBaggage"}
	EventTypeAttendedBaggage      = EventType{canonical: "AttendedBaggage"}
	EventTypeRegionEntrance       = EventType{canonical: "RegionEntrance"}
	EventTypeRegionExiting        = EventType{canonical: "RegionExiting"}
	EventTypeSceneChangeDetection = EventType{canonical: "SceneChangeDetection"}
	EventTypeFieldDetection       = EventType{canonical: "FieldDetection"}
	EventTypeFaceDetection        = EventType{canonical: "FaceDetection"}
	EventTypeFaceSnap             = EventType{canonical: "FaceSnap"}
	EventTypeAudioException       = EventType{canonical: "AudioException"}
	EventTypeVideoLoss            = EventType{canonical: "VideoLoss"}
	EventTypeTamper               = EventType{canonical: "Tamper"}
	EventTypeVideoMismatch        = EventType{canonical: "VideoMismatch"}
	EventTypeBadVideo             = EventType{canonical: "BadVideo"}
	EventTypeStorageDetection     = EventType{canonical: "StorageDetection"}
	EventTypeRecordingFailure     = EventType{canonical: "RecordingFailure"}
	EventTypeDiskFull             = EventType{canonical: "DiskFull"}
	EventTypeDiskError            = EventType{canonical: "DiskError"}
	EventTypeNicBroken            = EventType{canonical: "NicBroken"}
	EventTypeIPConflict           = EventType{canonical: "IpConflict"}
	EventTypeIllegalAccess        = EventType{canonical: "IllegalAccess"}
)

// EventTypeUnknown wraps a well-formed but unrecognized event type token,
// preserving it verbatim for display and re-emission.
func EventTypeUnknown(token string) EventType {
	return EventType{canonical: unknownMarker, unknown: token}
}

// IsVideoLoss reports whether this is the video-loss event type, which gets
// special treatment in the state manager: a video-loss alert for a trigger
// that was never listed during the initial trigger scan is not a surprise
// (most camera models never enumerate it as a trigger) and should not be
// logged as one.
func (e EventType) IsVideoLoss() bool {
	return e == EventTypeVideoLoss
}

// String returns the canonical wire spelling of the event type, the same
// spelling ParseEventType accepts case-insensitively.
func (e EventType) String() string {
	if e.canonical == unknownMarker {
		return e.unknown
	}
	return e.canonical
}

// FriendlyName returns a human-readable label suitable for Home Assistant
// discovery names and log lines.
func (e EventType) FriendlyName() string {
	switch e {
	case EventTypeIO:
		return "I/O Port"
	case EventTypeMotion:
		return "Motion"
	case EventTypeLineDetection:
		return "Line Crossing"
	case EventTypeUnattendedBaggage:
		return "Unattended Baggage"
	case EventTypeAttendedBaggage:
		return "Attended Baggage"
	case EventTypeRegionEntrance:
		return "Region Entering"
	case EventTypeRegionExiting:
		return "Region Exiting"
	case EventTypeSceneChangeDetection:
		return "Scene Change"
	case EventTypeFieldDetection:
		return "Field Detection"
	case EventTypeFaceDetection:
		return "Face Detection"
	case EventTypeFaceSnap:
		return "Face Snapshot"
	case EventTypeAudioException:
		return "Audio Exception"
	case EventTypeVideoLoss:
		return "Video Loss"
	case EventTypeTamper:
		return "Tamper"
	case EventTypeVideoMismatch:
		return "Video Mismatch"
	case EventTypeBadVideo:
		return "Bad Video"
	case EventTypeStorageDetection:
		return "Storage Detection"
	case EventTypeRecordingFailure:
		return "Recording Failure"
	case EventTypeDiskFull:
		return "Disk Full"
	case EventTypeDiskError:
		return "Disk Error"
	case EventTypeNicBroken:
		return "Network Card Broken"
	case EventTypeIPConflict:
		return "IP Address Conflict"
	case EventTypeIllegalAccess:
		return "Illegal Access"
	default:
		return e.unknown
	}
}

// DeviceClass maps the event type to a Home Assistant binary_sensor device
// class, or "" if none applies.
// See https://www.home-assistant.io/integrations/binary_sensor/#device-class
func (e EventType) DeviceClass() string {
	switch e {
	case EventTypeIO:
		return ""
	case EventTypeVideoLoss, EventTypeTamper, EventTypeVideoMismatch, EventTypeBadVideo,
		EventTypeStorageDetection, EventTypeRecordingFailure, EventTypeDiskFull,
		EventTypeDiskError, EventTypeNicBroken, EventTypeIPConflict, EventTypeIllegalAccess:
		return "problem"
	default:
		// Motion and every other detection/analytic type, plus unknown
		// tokens, default to motion-like semantics.
		return "motion"
	}
}

// Icon maps the event type to a Home Assistant mdi icon, or "" to let Home
// Assistant pick based on device class.
func (e EventType) Icon() string {
	switch e {
	case EventTypeIO:
		return "mdi:electric-switch"
	case EventTypeUnattendedBaggage, EventTypeAttendedBaggage:
		return "mdi:bag-suitcase"
	case EventTypeRegionEntrance:
		return "mdi:import"
	case EventTypeRegionExiting:
		return "mdi:export"
	case EventTypeFaceDetection, EventTypeFaceSnap:
		return "mdi:face-recognition"
	case EventTypeAudioException:
		return "mdi:microphone"
	case EventTypeVideoLoss, EventTypeVideoMismatch, EventTypeBadVideo:
		return "mdi:camera-off"
	case EventTypeStorageDetection, EventTypeRecordingFailure, EventTypeDiskFull, EventTypeDiskError:
		return "mdi:harddisk"
	case EventTypeNicBroken, EventTypeIPConflict:
		return "mdi:lan-disconnect"
	case EventTypeIllegalAccess:
		return "mdi:account-alert"
	default:
		return ""
	}
}

// ParseEventType parses a Hikvision event type token. Hikvision is
// inconsistent about casing, even within the same camera model, so parsing
// is case-insensitive. Two aliases reach EventTypeMotion: "vmd" (the token
// many firmwares use for a camera's local video-motion-detection trigger)
// and "motion" (the lowercase of the canonical spelling itself, which must
// parse back to Motion to satisfy the round-trip invariant between
// String and ParseEventType). An unrecognized token is kept as
// EventTypeUnknown as long as it contains only letters and digits;
// anything else is a parse error, since such a token could not have come
// from a genuine camera field.
func ParseEventType(s string) (EventType, error) {
	switch strings.ToLower(s) {
	case "io":
		return EventTypeIO, nil
	case "vmd", "motion":
		return EventTypeMotion, nil
	case "linedetection":
		return EventTypeLineDetection, nil
	case "unattendedbaggage":
		return EventTypeUnattendedBaggage, nil
	case "attendedbaggage":
		return EventTypeAttendedBaggage, nil
	case "regionentrance":
		return EventTypeRegionEntrance, nil
	case "regionexiting":
		return EventTypeRegionExiting, nil
	case "scenechangedetection":
		return EventTypeSceneChangeDetection, nil
	case "fielddetection":
		return EventTypeFieldDetection, nil
	case "facedetection":
		return EventTypeFaceDetection, nil
	case "facesnap":
		return EventTypeFaceSnap, nil
	case "audioexception":
		return EventTypeAudioException, nil
	case "videoloss":
		return EventTypeVideoLoss, nil
	case "tamper", "tamperdetection", "shelteralarm":
		return EventTypeTamper, nil
	case "videomismatch":
		return EventTypeVideoMismatch, nil
	case "badvideo":
		return EventTypeBadVideo, nil
	case "storagedetection":
		return EventTypeStorageDetection, nil
	case "recordingfailure":
		return EventTypeRecordingFailure, nil
	case "diskfull":
		return EventTypeDiskFull, nil
	case "diskerror":
		return EventTypeDiskError, nil
	case "nicbroken":
		return EventTypeNicBroken, nil
	case "ipconflict":
		return EventTypeIPConflict, nil
	case "illaccess", "illegalaccess":
		return EventTypeIllegalAccess, nil
	default:
		for _, r := range s {
			if !isAlphaNumeric(r) {
				return EventType{}, fmt.Errorf("event type contained non-alphanumeric characters: %q", s)
			}
		}
		return EventTypeUnknown(s), nil
	}
}

func isAlphaNumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// EventIdentifier names a specific trigger on a specific camera: an event
// type, optionally scoped to a channel (for NVRs/multi-channel encoders
// fronting several physical cameras).
type EventIdentifier struct {
	Channel   string // "" if the event is not channel-scoped
	EventType EventType
}

// String renders the identifier as "CH<channel> <friendly name>", or just
// "<friendly name>" when it has no channel, the display form used in logs
// and discovery names.
func (id EventIdentifier) String() string {
	if id.Channel != "" {
		return fmt.Sprintf("CH%s %s", id.Channel, id.EventType.FriendlyName())
	}
	return id.EventType.FriendlyName()
}
