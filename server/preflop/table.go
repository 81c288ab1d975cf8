package preflop

// handScores ranks the most common starting-hand classes. HandStrength
// looks a class up here first and scores anything missing with estimate(),
// so tier boundaries come from both sources. The table only needs entries
// where the estimator would misrank a hand.
var handScores = map[string]int{
	"AA": 100, "KK": 95, "QQ": 90, "AKs": 90,
	"JJ": 86, "AKo": 85, "AQs": 83,
	"TT": 80, "AJs": 80, "KQs": 78, "AQo": 77, "ATs": 76,
	"99": 75, "KJs": 75, "QJs": 73, "AJo": 72, "KTs": 72,
	"JTs": 71, "88": 70, "KQo": 70, "QTs": 69,
	"A9s": 67, "ATo": 66, "77": 65, "A8s": 64, "KJo": 64,
	"J9s": 62, "T9s": 62, "A7s": 61,
	"66": 60, "Q9s": 60, "A5s": 60,
	"A6s": 58, "A4s": 58, "KTo": 58, "QJo": 58,
	"A3s": 57, "55": 56, "A2s": 56,
	"K9s": 55, "98s": 55, "JTo": 55,
	"T8s": 53, "44": 52, "87s": 52,
	"QTo": 50, "A9o": 50,
	"K8s": 48, "33": 48, "97s": 48, "76s": 47, "J8s": 46,
	"22": 45, "65s": 44, "A8o": 44,
	"K9o": 42, "54s": 42,
	"86s": 40, "Q8s": 40,
	"J9o": 39, "T9o": 38, "75s": 37,
	"A7o": 36, "A5o": 36, "64s": 35,
}
