package hikapi

import (
	"fmt"
	"strconv"
)

// RegionCoordinates is one vertex of a detection region's polygon.
type RegionCoordinates struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

// DetectionRegion is one named, scored region of a camera's field of view
// that a trigger may report activity in.
type DetectionRegion struct {
	ID          string              `json:"id"`
	Sensitivity uint8               `json:"sensitivity"`
	Coordinates []RegionCoordinates `json:"coordinates"`
}

// AlertItem is one <EventNotificationAlert> document from the multipart
// alertStream.
type AlertItem struct {
	Identifier  EventIdentifier
	Active      bool
	Regions     []DetectionRegion
	PostCount   uint64
	Description string
	Date        string
}

// AlertParseError reports why an alert document could not be parsed,
// mirroring the distinct failure modes a camera can legitimately produce
// (malformed XML, a missing required field, a non-numeric count, an
// unrecognized event state, or the wrong root element entirely).
type AlertParseError struct {
	Reason string
}

func (e *AlertParseError) Error() string { return e.Reason }

func fieldMissingAlert(field string) error {
	return &AlertParseError{Reason: fmt.Sprintf("field was expected but missing: %s", field)}
}

// ParseAlert parses one <EventNotificationAlert> document.
func ParseAlert(data []byte) (AlertItem, error) {
	root, err := parseXML(data)
	if err != nil {
		return AlertItem{}, &AlertParseError{Reason: fmt.Sprintf("invalid xml: %v", err)}
	}
	if root.localName() != "EventNotificationAlert" {
		return AlertItem{}, fieldMissingAlert("EventNotificationAlert")
	}

	eventTypeStr, ok := root.childText("eventType")
	if !ok {
		return AlertItem{}, fieldMissingAlert("eventType")
	}

	eventStateStr, ok := root.childText("eventState")
	if !ok {
		return AlertItem{}, fieldMissingAlert("eventState")
	}
	var active bool
	switch eventStateStr {
	case "active":
		active = true
	case "inactive":
		active = false
	default:
		return AlertItem{}, &AlertParseError{Reason: fmt.Sprintf("event state should be active / inactive, got: %s", eventStateStr)}
	}

	description, ok := root.childText("eventDescription")
	if !ok {
		return AlertItem{}, fieldMissingAlert("eventDescription")
	}

	date, ok := root.childText("dateTime")
	if !ok {
		return AlertItem{}, fieldMissingAlert("dateTime")
	}

	postCountStr, ok := root.childText("activePostCount")
	if !ok {
		return AlertItem{}, fieldMissingAlert("activePostCount")
	}
	postCount, err := strconv.ParseUint(postCountStr, 10, 64)
	if err != nil {
		return AlertItem{}, &AlertParseError{Reason: fmt.Sprintf("activePostCount should be a number: %v", err)}
	}

	channel := ""
	if v, ok := root.childText("channelID"); ok {
		channel = v
	} else if v, ok := root.childText("dynChannelID"); ok {
		channel = v
	}

	regions, err := parseRegionList(root)
	if err != nil {
		return AlertItem{}, err
	}

	eventType, err := ParseEventType(eventTypeStr)
	if err != nil {
		return AlertItem{}, &AlertParseError{Reason: fmt.Sprintf("event type %q was incorrectly formatted: %v", eventTypeStr, err)}
	}

	return AlertItem{
		Identifier:  EventIdentifier{Channel: channel, EventType: eventType},
		Active:      active,
		Regions:     regions,
		PostCount:   postCount,
		Description: description,
		Date:        date,
	}, nil
}

func parseRegionList(root *node) ([]DetectionRegion, error) {
	var regions []DetectionRegion

	container := root.child("DetectionRegionList")
	if container == nil {
		return regions, nil
	}

	for i := range container.Children {
		entry := &container.Children[i]
		if entry.localName() != "DetectionRegionEntry" {
			return nil, &AlertParseError{Reason: fmt.Sprintf("child node in xml invalid, expected DetectionRegionEntry, found %s", entry.localName())}
		}

		id, ok := entry.childText("regionID")
		if !ok {
			return nil, fieldMissingAlert("regionID")
		}
		sensitivityStr, ok := entry.childText("sensitivityLevel")
		if !ok {
			return nil, fieldMissingAlert("sensitivityLevel")
		}
		sensitivity, err := strconv.ParseUint(sensitivityStr, 10, 8)
		if err != nil {
			return nil, &AlertParseError{Reason: fmt.Sprintf("sensitivityLevel should be a number: %v", err)}
		}

		var coords []RegionCoordinates
		if coordsList := entry.child("RegionCoordinatesList"); coordsList != nil {
			for j := range coordsList.Children {
				c := &coordsList.Children[j]
				xStr, ok := c.childText("positionX")
				if !ok {
					return nil, fieldMissingAlert("positionX")
				}
				yStr, ok := c.childText("positionY")
				if !ok {
					return nil, fieldMissingAlert("positionY")
				}
				x, err := strconv.ParseUint(xStr, 10, 32)
				if err != nil {
					return nil, &AlertParseError{Reason: fmt.Sprintf("positionX should be a number: %v", err)}
				}
				y, err := strconv.ParseUint(yStr, 10, 32)
				if err != nil {
					return nil, &AlertParseError{Reason: fmt.Sprintf("positionY should be a number: %v", err)}
				}
				coords = append(coords, RegionCoordinates{X: uint32(x), Y: uint32(y)})
			}
		}

		regions = append(regions, DetectionRegion{
			ID:          id,
			Sensitivity: uint8(sensitivity),
			Coordinates: coords,
		})
	}
	return regions, nil
}
