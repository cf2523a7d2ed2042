package model

// FeatureSnapshot is recomputed every cycle from the last candle window and
// never persisted on its own.
type FeatureSnapshot struct {
	Symbol            string  `json:"symbol"`
	CandleCount       int     `json:"candleCount"`
	LastClose         float64 `json:"lastClose"`
	Sma20             float64 `json:"sma20"`
	Sma50             float64 `json:"sma50"`
	Sma200            float64 `json:"sma200"`
	Rsi14             float64 `json:"rsi14"`
	MacdHistogram     float64 `json:"macdHistogram"`
	BollingerUpper    float64 `json:"bollingerUpper"`
	BollingerLower    float64 `json:"bollingerLower"`
	BollingerWidth    float64 `json:"bollingerWidth"`
	Volatility        float64 `json:"volatility"`
	TrendStrength     float64 `json:"trendStrength"`
	VolumeChangeRatio float64 `json:"volumeChangeRatio"`
	AverageVolume     float64 `json:"averageVolume"`
	LastVolume        float64 `json:"lastVolume"`
}

func (f *FeatureSnapshot) HasMinimumHistory() bool {
	return f.CandleCount >= 20
}

func (f *FeatureSnapshot) IsHighVolume() bool {
	return f.AverageVolume > 0.00 && f.LastVolume > f.AverageVolume*1.50
}
