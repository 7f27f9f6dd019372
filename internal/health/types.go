// Package health parses Apple Health exports into per-day metric aggregates.
package health

import (
	"time"
)

// MeasurementType is the internal key for a recognized Apple Health sample type.
type MeasurementType string

// Quantity measurement types. The string value is the JSON key used in results.
const (
	HeartRate                      MeasurementType = "heartRate"
	RestingHeartRate               MeasurementType = "restingHeartRate"
	HeartRateVariabilitySDNN       MeasurementType = "heartRateVariabilitySDNN"
	RespiratoryRate                MeasurementType = "respiratoryRate"
	VO2Max                         MeasurementType = "vo2Max"
	OxygenSaturation               MeasurementType = "oxygenSaturation"
	BodyTemperature                MeasurementType = "bodyTemperature"
	StepCount                      MeasurementType = "stepCount"
	DistanceWalkingRunning         MeasurementType = "distanceWalkingRunning"
	FlightsClimbed                 MeasurementType = "flightsClimbed"
	ActiveEnergyBurned             MeasurementType = "activeEnergyBurned"
	BasalEnergyBurned              MeasurementType = "basalEnergyBurned"
	AppleExerciseTime              MeasurementType = "appleExerciseTime"
	StandTime                      MeasurementType = "standTime"
	BodyMass                       MeasurementType = "bodyMass"
	Height                         MeasurementType = "height"
	BodyMassIndex                  MeasurementType = "bodyMassIndex"
	LeanBodyMass                   MeasurementType = "leanBodyMass"
	WaistCircumference             MeasurementType = "waistCircumference"
	BloodPressureSystolic          MeasurementType = "bloodPressureSystolic"
	BloodPressureDiastolic         MeasurementType = "bloodPressureDiastolic"
	WalkingSpeed                   MeasurementType = "walkingSpeed"
	WalkingStepLength              MeasurementType = "walkingStepLength"
	WalkingAsymmetryPercentage     MeasurementType = "walkingAsymmetryPercentage"
	WalkingDoubleSupportPercentage MeasurementType = "walkingDoubleSupportPercentage"
	EnvironmentalAudioExposure     MeasurementType = "environmentalAudioExposure"
	HeadphoneAudioExposure         MeasurementType = "headphoneAudioExposure"

	// SleepAnalysis is the category type for sleep stage samples.
	SleepAnalysis MeasurementType = "sleepAnalysis"
)

// SleepKey is the ProcessedDay field holding total asleep minutes.
const SleepKey = "sleep"

// DayKey is a calendar date in YYYY-MM-DD form.
type DayKey string

// DayKeyOf truncates a vendor timestamp to its date portion.
func DayKeyOf(timestamp string) DayKey {
	if len(timestamp) <= 10 {
		return DayKey(timestamp)
	}
	return DayKey(timestamp[:10])
}

// RawSample holds the attributes extracted from one record line.
type RawSample struct {
	Type       MeasurementType
	Value      string
	StartDate  string
	EndDate    string
	SourceName string

	// Quantity is set for quantity samples whose value parsed as a number.
	Quantity float64
	// Asleep is set for sleep samples whose value denotes an asleep stage.
	Asleep bool
}

// IsSleep reports whether the sample is a sleep analysis sample.
func (s RawSample) IsSleep() bool {
	return s.Type == SleepAnalysis
}

// SleepInterval is one asleep observation.
type SleepInterval struct {
	Start time.Time
	End   time.Time
}

// Minutes returns the interval length in minutes.
func (i SleepInterval) Minutes() float64 {
	return i.End.Sub(i.Start).Minutes()
}
