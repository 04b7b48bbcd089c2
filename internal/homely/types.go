package homely

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// AlarmStateUnknown is reported when a snapshot carries no alarm state.
const AlarmStateUnknown = "UNKNOWN"

// Location identifies one installation the account has access to. Produced
// by ListLocations only; never cached.
type Location struct {
	Name          string `json:"name"`
	LocationID    string `json:"locationId"`
	UserID        string `json:"userId"`
	GatewaySerial string `json:"gatewayserial"`
	Role          string `json:"role"`
}

// State is a single reported feature state, e.g. a temperature reading.
type State struct {
	Value       any    `json:"value"`
	LastUpdated string `json:"lastUpdated"`
}

// Feature groups the states of one device capability, keyed by state name.
type Feature struct {
	States map[string]State `json:"states"`
}

// Device is one sensor or gateway within a location snapshot. Devices have
// no identity outside the snapshot carrying them; every refresh replaces
// the whole collection.
type Device struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	SerialNumber string             `json:"serialNumber"`
	Location     string             `json:"location"`
	Online       bool               `json:"online"`
	ModelID      string             `json:"modelId"`
	ModelName    string             `json:"modelName"`
	Features     map[string]Feature `json:"features"`
}

// Snapshot is the last fetched full state of one location. The complete
// response document is kept in Raw; AlarmState and Devices are typed views
// decoded from it.
type Snapshot struct {
	LocationID string
	AlarmState string
	Devices    []Device
	Raw        map[string]any
	FetchedAt  time.Time
}

// snapshotPayload is the typed subset of the location-data document.
type snapshotPayload struct {
	AlarmState string   `json:"alarmState"`
	Devices    []Device `json:"devices"`
}

// parseSnapshot decodes a location-data response body. A document without
// an alarm state yields the UNKNOWN sentinel; a document that cannot be
// decoded at all is a server failure.
func parseSnapshot(locationID string, body []byte, fetchedAt time.Time) (*Snapshot, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed location data: %v", ErrServerFailure, err)
	}

	var payload snapshotPayload
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &payload,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: unexpected location data shape: %v", ErrServerFailure, err)
	}

	if payload.AlarmState == "" {
		payload.AlarmState = AlarmStateUnknown
	}

	return &Snapshot{
		LocationID: locationID,
		AlarmState: payload.AlarmState,
		Devices:    payload.Devices,
		Raw:        raw,
		FetchedAt:  fetchedAt,
	}, nil
}
