package hikapi

import "fmt"

// DeviceInfo is the result of GET /ISAPI/System/deviceInfo.
type DeviceInfo struct {
	DeviceName           string
	DeviceID             string
	Model                string
	SerialNumber         string
	MACAddress           string
	FirmwareVersion      string
	FirmwareReleaseDate  string
	DeviceType           string
}

// DeviceInfoParseError reports why a deviceInfo document could not be
// turned into a DeviceInfo.
type DeviceInfoParseError struct {
	Reason string
}

func (e *DeviceInfoParseError) Error() string { return e.Reason }

func fieldMissingDeviceInfo(field string) error {
	return &DeviceInfoParseError{Reason: fmt.Sprintf("field was expected but missing: %s", field)}
}

// ParseDeviceInfo parses a <DeviceInfo> document.
func ParseDeviceInfo(data []byte) (DeviceInfo, error) {
	root, err := parseXML(data)
	if err != nil {
		return DeviceInfo{}, &DeviceInfoParseError{Reason: fmt.Sprintf("invalid xml: %v", err)}
	}
	if root.localName() != "DeviceInfo" {
		return DeviceInfo{}, &DeviceInfoParseError{Reason: fmt.Sprintf("root node invalid: %s", root.localName())}
	}

	required := func(name string) (string, error) {
		v, ok := root.childText(name)
		if !ok {
			return "", fieldMissingDeviceInfo(name)
		}
		return v, nil
	}

	var info DeviceInfo
	var errs [8]error
	info.DeviceName, errs[0] = required("deviceName")
	info.DeviceID, errs[1] = required("deviceID")
	info.Model, errs[2] = required("model")
	info.SerialNumber, errs[3] = required("serialNumber")
	info.MACAddress, errs[4] = required("macAddress")
	info.FirmwareVersion, errs[5] = required("firmwareVersion")
	info.FirmwareReleaseDate, errs[6] = required("firmwareReleasedDate")
	info.DeviceType, errs[7] = required("deviceType")
	for _, e := range errs {
		if e != nil {
			return DeviceInfo{}, e
		}
	}
	return info, nil
}
