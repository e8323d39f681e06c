package regime

// Regime labels the market state used to pick a target allocation
type Regime string

const (
	RiskOn  Regime = "Risk-On"
	Neutral Regime = "Neutral"
	RiskOff Regime = "Risk-Off"
)

// Indicators are the benchmark statistics behind a classification.
// Nil on the Classification when history was too short to compute them.
type Indicators struct {
	ReferenceClose float64 `json:"reference_close" msgpack:"reference_close"`
	MA50           float64 `json:"ma50" msgpack:"ma50"`
	MA200          float64 `json:"ma200" msgpack:"ma200"`
	Vol20          float64 `json:"vol20" msgpack:"vol20"`
	Drawdown63     float64 `json:"drawdown63" msgpack:"drawdown63"`
}

// Classification is the classifier output
type Classification struct {
	Regime     Regime      `json:"regime" msgpack:"regime"`
	Indicators *Indicators `json:"indicators" msgpack:"indicators"`
	Reason     string      `json:"reason" msgpack:"reason"`
}
