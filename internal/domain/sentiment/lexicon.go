package sentiment

// term pairs a lexicon keyword with its polarity weight. Terms are held in
// slices, not maps, so scoring walks them in a fixed order and identical text
// always produces the identical score.
type term struct {
	word   string
	weight float64
}

// Bullish / bearish keyword dictionaries (lowercase). Weights express how
// strongly a keyword signals polarity, not probability.
var bullishTerms = []term{
	{"all-time high", 0.7},
	{"accumulate", 0.5},
	{"beat", 0.5},
	{"beats estimate", 0.6},
	{"breakout", 0.6},
	{"bullish", 0.7},
	{"buy", 0.5},
	{"dividend", 0.4},
	{"exceeds", 0.5},
	{"expansion", 0.4},
	{"growth", 0.4},
	{"outperform", 0.6},
	{"positive", 0.4},
	{"profit", 0.3},
	{"rally", 0.6},
	{"rebound", 0.5},
	{"record high", 0.7},
	{"recovery", 0.5},
	{"strong", 0.4},
	{"surge", 0.7},
	{"upbeat", 0.5},
	{"upgrade", 0.6},
}

var bearishTerms = []term{
	{"bankruptcy", 0.8},
	{"bearish", 0.7},
	{"concern", 0.3},
	{"correction", 0.5},
	{"crash", 0.8},
	{"cut", 0.3},
	{"decline", 0.5},
	{"default", 0.7},
	{"downgrade", 0.6},
	{"fall", 0.4},
	{"fraud", 0.8},
	{"investigation", 0.5},
	{"lawsuit", 0.5},
	{"loss", 0.4},
	{"miss", 0.5},
	{"negative", 0.4},
	{"plunge", 0.7},
	{"recall", 0.5},
	{"sell", 0.5},
	{"selloff", 0.7},
	{"slump", 0.6},
	{"underperform", 0.6},
	{"warning", 0.5},
	{"weak", 0.4},
}
