// Package units provides shared constants and conversion for lateral
// distance units
package units

// Unit constants
const (
	Pixels = "px"
	Meters = "m"
	Feet   = "ft"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Pixels, Meters, Feet}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "px, m, ft"
}

const feetPerMeter = 3.28083989501312

// ConvertWidth converts a lane width measured in image columns to the target
// units. metersPerPixel is the camera's ground-plane calibration; widths are
// stored in pixels.
func ConvertWidth(widthPx float64, metersPerPixel float64, targetUnits string) float64 {
	switch targetUnits {
	case Meters:
		return widthPx * metersPerPixel
	case Feet:
		return widthPx * metersPerPixel * feetPerMeter
	default:
		return widthPx
	}
}

// LateralOffset returns the signed distance of a column from the image
// centreline, positive to the right, in the target units.
func LateralOffset(col, imageWidth int, metersPerPixel float64, targetUnits string) float64 {
	offset := float64(col) - float64(imageWidth)/2
	return ConvertWidth(offset, metersPerPixel, targetUnits)
}
