package hikapi

import "fmt"

// TriggerItem is one entry from GET /ISAPI/Event/triggers: a trigger the
// camera is capable of raising, independent of whether it is currently
// active.
type TriggerItem struct {
	Identifier  EventIdentifier
	HikID       string
	Description string
}

// TriggerParseError reports why a triggers document could not be parsed.
type TriggerParseError struct {
	Reason string
}

func (e *TriggerParseError) Error() string { return e.Reason }

// ParseTriggers parses the triggers list document. Some models nest the
// list under <EventNotification><EventTriggerList>, others return the
// trigger entries as the document root's direct children; both shapes are
// accepted by descending into each wrapper only if present.
func ParseTriggers(data []byte) ([]TriggerItem, error) {
	root, err := parseXML(data)
	if err != nil {
		return nil, &TriggerParseError{Reason: fmt.Sprintf("invalid xml: %v", err)}
	}

	container := root
	if n := root.child("EventNotification"); n != nil {
		container = n
	}
	if n := container.child("EventTriggerList"); n != nil {
		container = n
	}

	var out []TriggerItem
	for i := range container.Children {
		entry := &container.Children[i]

		hikID, ok := entry.childText("id")
		if !ok {
			return nil, &TriggerParseError{Reason: "field was expected but missing: id"}
		}
		eventTypeStr, ok := entry.childText("eventType")
		if !ok {
			return nil, &TriggerParseError{Reason: "field was expected but missing: eventType"}
		}
		description, _ := entry.childText("eventDescription")

		channel := ""
		for _, name := range []string{"videoInputChannelID", "dynVideoInputChannelID", "inputIOPortID", "dynInputIOPortID"} {
			if v, ok := entry.childText(name); ok {
				channel = v
				break
			}
		}

		eventType, err := ParseEventType(eventTypeStr)
		if err != nil {
			return nil, &TriggerParseError{Reason: fmt.Sprintf("event type %q was incorrectly formatted: %v", eventTypeStr, err)}
		}

		out = append(out, TriggerItem{
			Identifier:  EventIdentifier{Channel: channel, EventType: eventType},
			HikID:       hikID,
			Description: description,
		})
	}
	return out, nil
}

// TriggerFromIdentifier synthesizes a TriggerItem for an identifier that
// was reported in an alert but never listed by ParseTriggers — most models
// never enumerate VideoLoss as a trigger, for example.
func TriggerFromIdentifier(id EventIdentifier) TriggerItem {
	hikID := id.EventType.String()
	if id.Channel != "" {
		hikID = fmt.Sprintf("%s-%s", hikID, id.Channel)
	}
	return TriggerItem{Identifier: id, HikID: hikID}
}
