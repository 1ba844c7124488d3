package logic

// Classify maps the latest reading and motion state to exactly one status.
// Motion overrides everything. Otherwise temperature and humidity are judged
// independently and combined.
func Classify(r Reading, motion bool, th Thresholds) EnvironmentStatus {
	if motion {
		return PestDetected
	}

	temp := level(r.Temperature, th.TempMin, th.TempMax)
	humid := level(r.Humidity, th.HumidMin, th.HumidMax)

	switch {
	case temp == LevelOK && humid == LevelOK:
		return Optimal
	case temp != LevelOK && humid != LevelOK:
		return Combined(temp, humid)
	case temp == LevelHigh:
		return TemperatureHigh
	case temp == LevelLow:
		return TemperatureLow
	case humid == LevelHigh:
		return HumidityHigh
	default:
		return HumidityLow
	}
}

// level compares with strict inequalities, so the bounds themselves are OK.
// NaN compares false both ways and is therefore treated as in range.
func level(v, min, max float64) Level {
	switch {
	case v > max:
		return LevelHigh
	case v < min:
		return LevelLow
	default:
		return LevelOK
	}
}
