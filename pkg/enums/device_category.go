package enums

import "fmt"

// DeviceCategory buckets the client device reported with each event.
type DeviceCategory string

const (
	DeviceCategoryDesktop DeviceCategory = "desktop"
	DeviceCategoryMobile  DeviceCategory = "mobile"
	DeviceCategoryTablet  DeviceCategory = "tablet"
)

var validDeviceCategories = []DeviceCategory{
	DeviceCategoryDesktop,
	DeviceCategoryMobile,
	DeviceCategoryTablet,
}

// IsValid checks whether the given category matches the canonical enum.
func (d DeviceCategory) IsValid() bool {
	for _, candidate := range validDeviceCategories {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeviceCategory converts raw strings into DeviceCategory.
func ParseDeviceCategory(value string) (DeviceCategory, error) {
	for _, candidate := range validDeviceCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid device category %q", value)
}
