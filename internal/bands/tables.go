package bands

import "github.com/straja-ai/winegrade/internal/features"

// tables is ordered for display: Alcohol, Volatile Acidity, Chlorides,
// Free SO₂, Total SO₂, Fixed Acidity.
var tables = []Table{
	{
		Parameter: features.Alcohol,
		Name:      "Alcohol",
		Unit:      "%",
		Precision: 1,
		LowMin:    10.5,
		IdealMin:  11.7,
		IdealMax:  12.7,
		HighMax:   14.1,
		Bands: [5]Band{
			Ideal: {Color: Green, Label: "Ideal", Message: "Tune between 11.7% - 12.7% to optimize quality"},
			SlightlyLow: {Color: Orange, Label: "Slightly Low", Actions: []string{
				"Extend fermentation time",
			}},
			Low: {Color: Red, Label: "Low", Actions: []string{
				"Check sugar levels pre-fermentation",
				"Verify yeast alcohol tolerance",
			}},
			High: {Color: Orange, Label: "Slightly High", Actions: []string{
				"Reduce sugar concentration in must",
				"Adjust fermentation temperature",
			}},
			Excessive: {Color: Red, Label: "Excessive", Actions: []string{
				"Verify measurement accuracy",
				"Consider reverse osmosis reduction",
			}},
		},
	},
	{
		Parameter: features.VolatileAcidity,
		Name:      "Volatile Acidity",
		Unit:      "g/L",
		Precision: 2,
		LowMin:    0.22,
		IdealMin:  0.25,
		IdealMax:  0.29,
		HighMax:   0.55,
		Bands: [5]Band{
			Ideal: {Color: Green, Label: "Ideal", Message: "Ideal for complexity."},
			SlightlyLow: {Color: Orange, Label: "Slightly Low", Actions: []string{
				"Extend malolactic fermentation",
			}},
			Low: {Color: Red, Label: "Low", Actions: []string{
				"Allow slightly warmer fermentation",
			}},
			High: {Color: Orange, Label: "High", Actions: []string{
				"More frequent topping up",
				"Lower storage temperatures",
			}},
			Excessive: {Color: Red, Label: "Excessive", Actions: []string{
				"Test for microbial spoilage",
				"Evaluate barrel sanitation procedures",
			}},
		},
	},
	{
		// The low end stays orange; there is no red-low tier for chlorides.
		Parameter: features.Chlorides,
		Name:      "Chlorides",
		Unit:      "g/L",
		Precision: 4,
		LowMin:    0.020,
		IdealMin:  0.030,
		IdealMax:  0.042,
		HighMax:   0.062,
		Bands: [5]Band{
			Ideal: {Color: Green, Label: "Ideal", Message: "Ideal salinity for balanced mouthfeel."},
			SlightlyLow: {Color: Orange, Label: "Slightly Low", Actions: []string{
				"Check water sources for low minerals",
				"Evaluate filtration systems",
			}},
			Low: {Color: Orange, Label: "Low", Actions: []string{
				"Verify lab measurement accuracy",
				"Assess if over-dilution occurred",
			}},
			High: {Color: Orange, Label: "Slightly High", Actions: []string{
				"Check vineyard irrigation water for salt levels",
				"Review cleaning protocols",
			}},
			Excessive: {Color: Red, Label: "Excessive", Actions: []string{
				"Investigate contamination sources",
				"Assess impact on wine sensory profile",
			}},
		},
	},
	{
		Parameter: features.FreeSO2,
		Name:      "Free SO₂",
		Unit:      " mg/L",
		Precision: 0,
		LowMin:    26,
		IdealMin:  36,
		IdealMax:  39,
		HighMax:   41,
		Bands: [5]Band{
			Ideal: {Color: Green, Label: "Ideal", Message: "Optimal antimicrobial and antioxidant protection."},
			SlightlyLow: {Color: Orange, Label: "Slightly Low", Actions: []string{
				"Monitor free SO₂ levels regularly to prevent quality loss",
			}},
			Low: {Color: Red, Label: "Low", Actions: []string{
				"Verify pH and adjust SO₂ usage",
				"Reassess storage conditions",
			}},
			High: {Color: Orange, Label: "Slightly High", Actions: []string{
				"Potential harsh aroma",
				"Monitor closely to avoid exceeding sensory threshold",
			}},
			Excessive: {Color: Red, Label: "Excessive", Actions: []string{
				"Risk of strong SO₂ off-odors and flavors",
			}},
		},
	},
	{
		Parameter: features.TotalSO2,
		Name:      "Total SO₂",
		Unit:      " mg/L",
		Precision: 0,
		LowMin:    100,
		IdealMin:  120,
		IdealMax:  180,
		HighMax:   200,
		Bands: [5]Band{
			Ideal: {Color: Green, Label: "Ideal", Message: "Balanced antioxidant efficacy. Tune between 120–180 mg/L to optimize quality"},
			SlightlyLow: {Color: Orange, Label: "Slightly Low", Actions: []string{
				"Store in cooler conditions to preserve free SO₂",
			}},
			Low: {Color: Red, Label: "Low", Actions: []string{
				"Increase SO₂ dosage",
				"Monitor closely during aging and distribution",
			}},
			High: {Color: Orange, Label: "Slightly High", Actions: []string{
				"Aerate to reduce free SO₂ levels",
			}},
			Excessive: {Color: Red, Label: "Excessive", Actions: []string{
				"Halt SO₂ additions immediately",
			}},
		},
	},
	{
		Parameter: features.FixedAcidity,
		Name:      "Fixed Acidity",
		Unit:      " g/L",
		Precision: 1,
		LowMin:    6.2,
		IdealMin:  7.1,
		IdealMax:  7.4,
		HighMax:   9.1,
		Bands: [5]Band{
			Ideal: {Color: Green, Label: "Ideal", Message: "Optimal crispness and freshness."},
			SlightlyLow: {Color: Orange, Label: "Slightly Low", Actions: []string{
				"Consider acid adjustments to improve vibrancy",
			}},
			Low: {Color: Red, Label: "Low", Actions: []string{
				"Risk of oxidation and short shelf life",
				"Review acid management",
			}},
			High: {Color: Orange, Label: "High", Actions: []string{
				"Consider balancing with sugar",
				"Watch for potential influence on fermentation and yeast health",
			}},
			Excessive: {Color: Red, Label: "Excessive", Actions: []string{
				"Excess acidity may overpower delicate aromas and flavors",
				"Immediate correction recommended",
			}},
		},
	},
}
