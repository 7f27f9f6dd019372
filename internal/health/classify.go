package health

import (
	"math"
	"strconv"
	"strings"
)

const (
	recordMarker    = "<Record"
	sleepVendorType = "HKCategoryTypeIdentifierSleepAnalysis"
	unknownSource   = "Unknown"
)

var quantityTypes = map[string]MeasurementType{
	"HKQuantityTypeIdentifierHeartRate":                      HeartRate,
	"HKQuantityTypeIdentifierRestingHeartRate":               RestingHeartRate,
	"HKQuantityTypeIdentifierHeartRateVariabilitySDNN":       HeartRateVariabilitySDNN,
	"HKQuantityTypeIdentifierRespiratoryRate":                RespiratoryRate,
	"HKQuantityTypeIdentifierVO2Max":                         VO2Max,
	"HKQuantityTypeIdentifierOxygenSaturation":               OxygenSaturation,
	"HKQuantityTypeIdentifierBodyTemperature":                BodyTemperature,
	"HKQuantityTypeIdentifierStepCount":                      StepCount,
	"HKQuantityTypeIdentifierDistanceWalkingRunning":         DistanceWalkingRunning,
	"HKQuantityTypeIdentifierFlightsClimbed":                 FlightsClimbed,
	"HKQuantityTypeIdentifierActiveEnergyBurned":             ActiveEnergyBurned,
	"HKQuantityTypeIdentifierBasalEnergyBurned":              BasalEnergyBurned,
	"HKQuantityTypeIdentifierAppleExerciseTime":              AppleExerciseTime,
	"HKQuantityTypeIdentifierAppleStandTime":                 StandTime,
	"HKQuantityTypeIdentifierBodyMass":                       BodyMass,
	"HKQuantityTypeIdentifierHeight":                         Height,
	"HKQuantityTypeIdentifierBodyMassIndex":                  BodyMassIndex,
	"HKQuantityTypeIdentifierLeanBodyMass":                   LeanBodyMass,
	"HKQuantityTypeIdentifierWaistCircumference":             WaistCircumference,
	"HKQuantityTypeIdentifierBloodPressureSystolic":          BloodPressureSystolic,
	"HKQuantityTypeIdentifierBloodPressureDiastolic":         BloodPressureDiastolic,
	"HKQuantityTypeIdentifierWalkingSpeed":                   WalkingSpeed,
	"HKQuantityTypeIdentifierWalkingStepLength":              WalkingStepLength,
	"HKQuantityTypeIdentifierWalkingAsymmetryPercentage":     WalkingAsymmetryPercentage,
	"HKQuantityTypeIdentifierWalkingDoubleSupportPercentage": WalkingDoubleSupportPercentage,
	"HKQuantityTypeIdentifierEnvironmentalAudioExposure":     EnvironmentalAudioExposure,
	"HKQuantityTypeIdentifierHeadphoneAudioExposure":         HeadphoneAudioExposure,
}

// Legacy numeric sleep stage codes treated as asleep.
var asleepCodes = map[string]struct{}{
	"3": {},
	"4": {},
	"5": {},
}

// Classification is the outcome of classifying one line.
type Classification int

const (
	// Irrelevant lines carry no record marker.
	Irrelevant Classification = iota
	// Unrecognized records have a type outside the lookup table.
	Unrecognized
	// Malformed records lack a required attribute or a usable value.
	Malformed
	// Accepted records produced a RawSample.
	Accepted
)

// Classifier maps record lines to raw samples.
type Classifier struct {
	types map[string]MeasurementType
}

// NewClassifier returns a Classifier over the built-in type table.
func NewClassifier() *Classifier {
	return &Classifier{types: quantityTypes}
}

// Lookup maps a vendor type identifier to its MeasurementType.
func (c *Classifier) Lookup(vendorType string) (MeasurementType, bool) {
	if vendorType == sleepVendorType {
		return SleepAnalysis, true
	}
	mt, ok := c.types[vendorType]
	return mt, ok
}

// Classify extracts a RawSample from line. It returns false for any line that
// does not yield a usable sample.
func (c *Classifier) Classify(line string) (RawSample, bool) {
	sample, kind := c.ClassifyDetail(line)
	return sample, kind == Accepted
}

// ClassifyDetail is Classify with the reason a line was dropped.
func (c *Classifier) ClassifyDetail(line string) (RawSample, Classification) {
	if !strings.Contains(line, recordMarker) {
		return RawSample{}, Irrelevant
	}
	vendorType, ok := attr(line, "type")
	if !ok {
		return RawSample{}, Malformed
	}
	mt, ok := c.Lookup(vendorType)
	if !ok {
		return RawSample{}, Unrecognized
	}
	start, ok := attr(line, "startDate")
	if !ok {
		return RawSample{}, Malformed
	}
	sample := RawSample{Type: mt, StartDate: start}
	sample.Value, _ = attr(line, "value")

	if mt == SleepAnalysis {
		end, ok := attr(line, "endDate")
		if !ok || sample.Value == "" {
			return RawSample{}, Malformed
		}
		sample.EndDate = end
		sample.Asleep = isAsleep(sample.Value)
		return sample, Accepted
	}

	if sample.Value == "" {
		return RawSample{}, Malformed
	}
	v, err := strconv.ParseFloat(sample.Value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return RawSample{}, Malformed
	}
	sample.Quantity = v
	sample.EndDate, _ = attr(line, "endDate")
	if source, ok := attr(line, "sourceName"); ok {
		sample.SourceName = source
	} else {
		sample.SourceName = unknownSource
	}
	return sample, Accepted
}

func isAsleep(value string) bool {
	if strings.Contains(value, "Asleep") {
		return true
	}
	_, ok := asleepCodes[value]
	return ok
}

// attr returns the first non-empty value of name="..." where name starts at an
// attribute boundary.
func attr(line, name string) (string, bool) {
	needle := name + `="`
	offset := 0
	for {
		idx := strings.Index(line[offset:], needle)
		if idx < 0 {
			return "", false
		}
		idx += offset
		if idx == 0 || isAttrBoundary(line[idx-1]) {
			start := idx + len(needle)
			end := strings.IndexByte(line[start:], '"')
			if end < 0 {
				return "", false
			}
			if end > 0 {
				return line[start : start+end], true
			}
		}
		offset = idx + len(needle)
	}
}

func isAttrBoundary(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
