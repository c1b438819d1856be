package normalize

import "github.com/josejalvarezm/wellness-webhook-receiver/internal/domain"

var measurementMappings = []FieldMapping[TerraMeasurement]{
	{MetricName: "Weight", Unit: "kg", Category: domain.CategoryBodyComposition,
		Value: func(m TerraMeasurement) *float64 { return m.WeightKg }},
	{MetricName: "Body Fat %", Unit: "%", Category: domain.CategoryBodyComposition,
		Value: func(m TerraMeasurement) *float64 { return m.BodyfatPercentage }},
	{MetricName: "BMI", Unit: "kg/m²", Category: domain.CategoryBodyComposition,
		Value: func(m TerraMeasurement) *float64 { return m.BMI }},
	{MetricName: "Muscle Mass", Unit: "kg", Category: domain.CategoryBodyComposition,
		Value: func(m TerraMeasurement) *float64 { return m.MuscleMassG }, Transform: gramsToKg},
	{MetricName: "Bone Mass", Unit: "kg", Category: domain.CategoryBodyComposition,
		Value: func(m TerraMeasurement) *float64 { return m.BoneMassG }, Transform: gramsToKg},
	{MetricName: "Body Water %", Unit: "%", Category: domain.CategoryBodyComposition,
		Value: func(m TerraMeasurement) *float64 { return m.WaterPercentage }},
	{MetricName: "Lean Mass", Unit: "kg", Category: domain.CategoryBodyComposition,
		Value: func(m TerraMeasurement) *float64 { return m.LeanMassG }, Transform: gramsToKg},
}

var bodyMappings = []FieldMapping[TerraBodyItem]{
	{MetricName: "Blood Glucose", Unit: "mg/dL", Category: domain.CategoryHealth,
		Value: func(b TerraBodyItem) *float64 {
			if b.GlucoseData == nil {
				return nil
			}
			if b.GlucoseData.DayAvgBloodGlucoseMgPerDL != nil {
				return b.GlucoseData.DayAvgBloodGlucoseMgPerDL
			}
			if len(b.GlucoseData.BloodGlucoseSamples) > 0 {
				return b.GlucoseData.BloodGlucoseSamples[0].BloodGlucoseMgPerDL
			}
			return nil
		}},
	{MetricName: "Systolic Blood Pressure", Unit: "mmHg", Category: domain.CategoryHealth,
		Value: func(b TerraBodyItem) *float64 {
			if s := b.firstBloodPressure(); s != nil {
				return s.SystolicBP
			}
			return nil
		}},
	{MetricName: "Diastolic Blood Pressure", Unit: "mmHg", Category: domain.CategoryHealth,
		Value: func(b TerraBodyItem) *float64 {
			if s := b.firstBloodPressure(); s != nil {
				return s.DiastolicBP
			}
			return nil
		}},
	{MetricName: "Resting Heart Rate", Unit: "bpm", Category: domain.CategoryHealth,
		Value: func(b TerraBodyItem) *float64 {
			if s := b.heartSummary(); s != nil {
				return s.RestingHRBpm
			}
			return nil
		}},
	{MetricName: "HRV", Unit: "ms", Category: domain.CategoryHealth,
		Value: func(b TerraBodyItem) *float64 {
			if s := b.heartSummary(); s != nil {
				return s.AvgHRVRmssd
			}
			return nil
		}},
	{MetricName: "SpO2", Unit: "%", Category: domain.CategoryHealth,
		Value: func(b TerraBodyItem) *float64 {
			if b.OxygenData == nil {
				return nil
			}
			return b.OxygenData.AvgSaturationPercentage
		}},
	{MetricName: "Body Temperature", Unit: "°C", Category: domain.CategoryHealth,
		Value: func(b TerraBodyItem) *float64 {
			if b.TemperatureData == nil || len(b.TemperatureData.BodyTemperatureSamples) == 0 {
				return nil
			}
			return b.TemperatureData.BodyTemperatureSamples[0].TemperatureCelsius
		}},
}

func (b TerraBodyItem) firstBloodPressure() *TerraBPSample {
	if b.BloodPressureData == nil || len(b.BloodPressureData.BloodPressureSamples) == 0 {
		return nil
	}
	return &b.BloodPressureData.BloodPressureSamples[0]
}

func (b TerraBodyItem) heartSummary() *TerraHRSummary {
	if b.HeartData == nil {
		return nil
	}
	return b.HeartData.HeartRateData.summary()
}

var dailyMappings = []FieldMapping[TerraDailyItem]{
	{MetricName: "Steps", Unit: "steps", Category: domain.CategoryActivity,
		Value: func(d TerraDailyItem) *float64 {
			if d.DistanceData == nil {
				return nil
			}
			return d.DistanceData.Steps
		}},
	{MetricName: "Distance", Unit: "km", Category: domain.CategoryActivity, Transform: metersToKm,
		Value: func(d TerraDailyItem) *float64 {
			if d.DistanceData == nil {
				return nil
			}
			return d.DistanceData.DistanceMeters
		}},
	{MetricName: "Active Calories", Unit: "kcal", Category: domain.CategoryActivity,
		Value: func(d TerraDailyItem) *float64 {
			if d.CaloriesData == nil {
				return nil
			}
			return d.CaloriesData.NetActivityCalories
		}},
	{MetricName: "Total Calories", Unit: "kcal", Category: domain.CategoryActivity,
		Value: func(d TerraDailyItem) *float64 {
			if d.CaloriesData == nil {
				return nil
			}
			return d.CaloriesData.TotalBurnedCalories
		}},
	{MetricName: "Resting Heart Rate", Unit: "bpm", Category: domain.CategoryRecovery,
		Value: func(d TerraDailyItem) *float64 {
			if s := d.HeartRateData.summary(); s != nil {
				return s.RestingHRBpm
			}
			return nil
		}},
	{MetricName: "Average Heart Rate", Unit: "bpm", Category: domain.CategoryActivity,
		Value: func(d TerraDailyItem) *float64 {
			if s := d.HeartRateData.summary(); s != nil {
				return s.AvgHRBpm
			}
			return nil
		}},
	{MetricName: "HRV", Unit: "ms", Category: domain.CategoryRecovery,
		Value: func(d TerraDailyItem) *float64 {
			if s := d.HeartRateData.summary(); s != nil {
				return s.AvgHRVRmssd
			}
			return nil
		}},
	{MetricName: "Stress Level", Unit: "score", Category: domain.CategoryHealth,
		Value: func(d TerraDailyItem) *float64 {
			if d.StressData == nil {
				return nil
			}
			return d.StressData.AvgStressLevel
		}},
	{MetricName: "Recovery Score", Unit: "%", Category: domain.CategoryRecovery,
		Value: func(d TerraDailyItem) *float64 {
			if d.Scores == nil {
				return nil
			}
			return d.Scores.Recovery
		}},
	{MetricName: "Activity Score", Unit: "score", Category: domain.CategoryActivity,
		Value: func(d TerraDailyItem) *float64 {
			if d.Scores == nil {
				return nil
			}
			return d.Scores.Activity
		}},
	{MetricName: "Sleep Score", Unit: "score", Category: domain.CategorySleep,
		Value: func(d TerraDailyItem) *float64 {
			if d.Scores == nil {
				return nil
			}
			return d.Scores.Sleep
		}},
	{MetricName: "VO2 Max", Unit: "ml/kg/min", Category: domain.CategoryHealth,
		Value: func(d TerraDailyItem) *float64 {
			if d.OxygenData == nil {
				return nil
			}
			return d.OxygenData.Vo2MaxMlPerMinPerKg
		}},
	{MetricName: "SpO2", Unit: "%", Category: domain.CategoryHealth,
		Value: func(d TerraDailyItem) *float64 {
			if d.OxygenData == nil {
				return nil
			}
			return d.OxygenData.AvgSaturationPercentage
		}},
}

var sleepMappings = []FieldMapping[TerraSleepItem]{
	{MetricName: "Sleep Duration", Unit: "h", Category: domain.CategorySleep, Transform: secondsToHours,
		Value: func(s TerraSleepItem) *float64 {
			if a := s.asleep(); a != nil {
				return a.DurationAsleepStateSeconds
			}
			return nil
		}},
	{MetricName: "Deep Sleep", Unit: "h", Category: domain.CategorySleep, Transform: secondsToHours,
		Value: func(s TerraSleepItem) *float64 {
			if a := s.asleep(); a != nil {
				return a.DurationDeepSleepStateSeconds
			}
			return nil
		}},
	{MetricName: "REM Sleep", Unit: "h", Category: domain.CategorySleep, Transform: secondsToHours,
		Value: func(s TerraSleepItem) *float64 {
			if a := s.asleep(); a != nil {
				return a.DurationREMSleepStateSeconds
			}
			return nil
		}},
	{MetricName: "Light Sleep", Unit: "h", Category: domain.CategorySleep, Transform: secondsToHours,
		Value: func(s TerraSleepItem) *float64 {
			if a := s.asleep(); a != nil {
				return a.DurationLightSleepStateSeconds
			}
			return nil
		}},
	{MetricName: "Awake Time", Unit: "h", Category: domain.CategorySleep, Transform: secondsToHours,
		Value: func(s TerraSleepItem) *float64 {
			if s.SleepDurationsData == nil || s.SleepDurationsData.Awake == nil {
				return nil
			}
			return s.SleepDurationsData.Awake.DurationAwakeStateSeconds
		}},
	{MetricName: "Time In Bed", Unit: "h", Category: domain.CategorySleep, Transform: secondsToHours,
		Value: func(s TerraSleepItem) *float64 {
			if s.SleepDurationsData == nil || s.SleepDurationsData.Other == nil {
				return nil
			}
			return s.SleepDurationsData.Other.DurationInBedSeconds
		}},
	{MetricName: "Sleep Efficiency", Unit: "%", Category: domain.CategorySleep, Transform: ratioToPercent,
		Value: func(s TerraSleepItem) *float64 {
			if s.SleepDurationsData == nil {
				return nil
			}
			return s.SleepDurationsData.SleepEfficiency
		}},
	{MetricName: "Respiratory Rate", Unit: "rpm", Category: domain.CategorySleep,
		Value: func(s TerraSleepItem) *float64 {
			if s.RespirationData == nil || s.RespirationData.BreathsData == nil {
				return nil
			}
			return s.RespirationData.BreathsData.AvgBreathsPerMin
		}},
	{MetricName: "Resting Heart Rate", Unit: "bpm", Category: domain.CategoryRecovery,
		Value: func(s TerraSleepItem) *float64 {
			if hr := s.HeartRateData.summary(); hr != nil {
				return hr.RestingHRBpm
			}
			return nil
		}},
	{MetricName: "HRV", Unit: "ms", Category: domain.CategoryRecovery,
		Value: func(s TerraSleepItem) *float64 {
			if hr := s.HeartRateData.summary(); hr != nil {
				return hr.AvgHRVRmssd
			}
			return nil
		}},
	{MetricName: "Readiness", Unit: "score", Category: domain.CategoryRecovery,
		Value: func(s TerraSleepItem) *float64 {
			if s.ReadinessData == nil {
				return nil
			}
			return s.ReadinessData.Readiness
		}},
}

func (s TerraSleepItem) asleep() *TerraAsleep {
	if s.SleepDurationsData == nil {
		return nil
	}
	return s.SleepDurationsData.Asleep
}

var nutritionMappings = []FieldMapping[TerraNutritionItem]{
	{MetricName: "Calories Consumed", Unit: "kcal", Category: domain.CategoryNutrition,
		Value: func(n TerraNutritionItem) *float64 {
			if m := n.macros(); m != nil {
				return m.Calories
			}
			return nil
		}},
	{MetricName: "Protein", Unit: "g", Category: domain.CategoryNutrition,
		Value: func(n TerraNutritionItem) *float64 {
			if m := n.macros(); m != nil {
				return m.ProteinG
			}
			return nil
		}},
	{MetricName: "Carbohydrates", Unit: "g", Category: domain.CategoryNutrition,
		Value: func(n TerraNutritionItem) *float64 {
			if m := n.macros(); m != nil {
				return m.CarbohydratesG
			}
			return nil
		}},
	{MetricName: "Fat", Unit: "g", Category: domain.CategoryNutrition,
		Value: func(n TerraNutritionItem) *float64 {
			if m := n.macros(); m != nil {
				return m.FatG
			}
			return nil
		}},
	{MetricName: "Water", Unit: "ml", Category: domain.CategoryNutrition,
		Value: func(n TerraNutritionItem) *float64 {
			if n.Summary == nil {
				return nil
			}
			return n.Summary.WaterML
		}},
}

func (n TerraNutritionItem) macros() *TerraMacros {
	if n.Summary == nil {
		return nil
	}
	return n.Summary.Macros
}
