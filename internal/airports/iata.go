// Package airports maps city names to IATA airport codes. The table covers
// the major airports on served routes, with Spanish, Hindi, and native-name
// variants so tool calls work with the language the user typed in.
package airports

import "strings"

var iataByCity = map[string]string{
	// India
	"delhi": "DEL", "new delhi": "DEL", "nueva delhi": "DEL",
	"नई दिल्ली": "DEL", "दिल्ली": "DEL",
	"mumbai": "BOM", "bombay": "BOM", "मुंबई": "BOM",
	"bangalore": "BLR", "bengaluru": "BLR", "बेंगलुरु": "BLR",
	"chennai": "MAA", "madras": "MAA", "चेन्नई": "MAA",
	"kolkata": "CCU", "calcutta": "CCU", "कोलकाता": "CCU",
	"hyderabad": "HYD", "हैदराबाद": "HYD",
	"goa": "GOI", "गोवा": "GOI",
	"pune": "PNQ", "पुणे": "PNQ",
	"ahmedabad": "AMD", "अहमदाबाद": "AMD",
	"jaipur": "JAI", "जयपुर": "JAI",
	"kochi": "COK", "cochin": "COK", "कोच्चि": "COK",
	"thiruvananthapuram": "TRV", "trivandrum": "TRV",
	"lucknow": "LKO", "लखनऊ": "LKO",
	"patna": "PAT", "पटना": "PAT",
	"amritsar": "ATQ", "अमृतसर": "ATQ",
	"srinagar": "SXR", "श्रीनगर": "SXR",
	"varanasi": "VNS", "वाराणसी": "VNS", "बनारस": "VNS",
	"chandigarh": "IXC", "indore": "IDR", "bhopal": "BHO",
	"nagpur": "NAG", "coimbatore": "CJB", "mangalore": "IXE",
	"visakhapatnam": "VTZ", "vizag": "VTZ", "bhubaneswar": "BBI",
	"ranchi": "IXR", "guwahati": "GAU", "imphal": "IMF",
	"agartala": "IXA", "port blair": "IXZ", "andaman": "IXZ",

	// East Asia
	"tokyo": "NRT", "tokio": "NRT", "東京": "NRT", "narita": "NRT",
	"haneda": "HND",
	"osaka": "KIX", "大阪": "KIX",
	"beijing": "PEK", "peking": "PEK", "pekín": "PEK", "北京": "PEK",
	"shanghai": "PVG", "shanghái": "PVG", "上海": "PVG",
	"guangzhou": "CAN", "canton": "CAN", "广州": "CAN",
	"shenzhen": "SZX", "深圳": "SZX",
	"hong kong": "HKG", "hongkong": "HKG", "香港": "HKG",
	"taipei": "TPE", "台北": "TPE",
	"seoul": "ICN", "seúl": "ICN", "서울": "ICN",

	// Southeast Asia
	"singapore": "SIN", "singapur": "SIN", "新加坡": "SIN",
	"kuala lumpur": "KUL",
	"bangkok": "BKK", "กรุงเทพ": "BKK",
	"jakarta": "CGK", "yakarta": "CGK",
	"manila": "MNL",
	"ho chi minh": "SGN", "saigon": "SGN",
	"hanoi": "HAN",
	"bali": "DPS", "denpasar": "DPS",
	"phuket": "HKT",
	"yangon": "RGN", "rangoon": "RGN",
	"phnom penh": "PNH",

	// Middle East
	"dubai": "DXB", "dubái": "DXB", "دبي": "DXB",
	"abu dhabi": "AUH", "doha": "DOH",
	"riyadh": "RUH", "riad": "RUH",
	"jeddah": "JED", "yeda": "JED",
	"muscat": "MCT", "mascate": "MCT",
	"kuwait": "KWI", "bahrain": "BAH", "tel aviv": "TLV",
	"amman": "AMM", "amán": "AMM",
	"tehran": "IKA", "teherán": "IKA",

	// Europe
	"london": "LHR", "londres": "LHR", "लंदन": "LHR",
	"london heathrow": "LHR", "london gatwick": "LGW", "london stansted": "STN",
	"paris": "CDG", "parís": "CDG", "पेरिस": "CDG", "charles de gaulle": "CDG",
	"frankfurt": "FRA", "fráncfort": "FRA",
	"amsterdam": "AMS", "ámsterdam": "AMS",
	"madrid": "MAD", "barcelona": "BCN",
	"rome": "FCO", "roma": "FCO", "रोम": "FCO", "fiumicino": "FCO",
	"milan": "MXP", "milán": "MXP", "malpensa": "MXP",
	"zurich": "ZRH", "zúrich": "ZRH",
	"geneva": "GVA", "ginebra": "GVA", "genf": "GVA",
	"vienna": "VIE", "viena": "VIE", "wien": "VIE",
	"berlin": "BER", "berlín": "BER",
	"munich": "MUC", "múnich": "MUC", "münchen": "MUC",
	"brussels": "BRU", "bruselas": "BRU",
	"lisbon": "LIS", "lisboa": "LIS",
	"dublin": "DUB", "dublín": "DUB",
	"moscow": "SVO", "moscú": "SVO", "москва": "SVO", "sheremetyevo": "SVO",
	"copenhagen": "CPH", "copenhague": "CPH",
	"stockholm": "ARN", "estocolmo": "ARN",
	"oslo": "OSL", "helsinki": "HEL",
	"warsaw": "WAW", "varsovia": "WAW",
	"prague": "PRG", "praga": "PRG",
	"budapest": "BUD",
	"athens": "ATH", "atenas": "ATH",
	"istanbul": "IST", "estambul": "IST",
	"manchester": "MAN", "birmingham": "BHX",
	"edinburgh": "EDI", "edimburgo": "EDI", "glasgow": "GLA",

	// North America
	"new york": "JFK", "nueva york": "JFK", "न्यूयॉर्क": "JFK", "jfk": "JFK",
	"newark": "EWR",
	"los angeles": "LAX", "लॉस एंजिल्स": "LAX",
	"chicago": "ORD", "o'hare": "ORD",
	"san francisco": "SFO", "miami": "MIA",
	"washington": "IAD", "dulles": "IAD",
	"boston": "BOS", "seattle": "SEA", "denver": "DEN", "atlanta": "ATL",
	"dallas": "DFW", "houston": "IAH", "las vegas": "LAS", "phoenix": "PHX",
	"san diego": "SAN", "minneapolis": "MSP", "detroit": "DTW",
	"philadelphia": "PHL", "filadelfia": "PHL",
	"orlando": "MCO", "honolulu": "HNL",
	"toronto": "YYZ", "vancouver": "YVR", "montreal": "YUL",
	"calgary": "YYC", "ottawa": "YOW",

	// Latin America
	"mexico city": "MEX", "ciudad de méxico": "MEX", "cdmx": "MEX",
	"cancun": "CUN", "cancún": "CUN",
	"guadalajara": "GDL", "monterrey": "MTY",
	"sao paulo": "GRU", "são paulo": "GRU", "san pablo": "GRU", "guarulhos": "GRU",
	"rio de janeiro": "GIG", "río de janeiro": "GIG", "galeão": "GIG",
	"buenos aires": "EZE", "ezeiza": "EZE",
	"santiago": "SCL", "lima": "LIM",
	"bogota": "BOG", "bogotá": "BOG",
	"medellin": "MDE", "medellín": "MDE",
	"panama city": "PTY", "ciudad de panamá": "PTY",
	"san jose": "SJO", "san josé": "SJO",
	"havana": "HAV", "la habana": "HAV",
	"caracas": "CCS", "quito": "UIO",

	// Oceania
	"sydney": "SYD", "sídney": "SYD",
	"melbourne": "MEL", "brisbane": "BNE", "perth": "PER",
	"auckland": "AKL", "wellington": "WLG", "christchurch": "CHC",
	"fiji": "NAN", "nadi": "NAN",

	// Africa
	"johannesburg": "JNB",
	"cape town": "CPT", "ciudad del cabo": "CPT",
	"cairo": "CAI", "el cairo": "CAI", "القاهرة": "CAI",
	"nairobi": "NBO", "lagos": "LOS", "addis ababa": "ADD",
	"casablanca": "CMN", "marrakech": "RAK",
	"tunis": "TUN", "túnez": "TUN",
	"algiers": "ALG", "argel": "ALG",
	"mauritius": "MRU", "mauricio": "MRU",
	"seychelles": "SEZ", "dar es salaam": "DAR", "accra": "ACC",
}

// Lookup resolves a city name (any supported language) or a bare 3-letter
// code to an IATA code. Returns "" when nothing matches.
func Lookup(city string) string {
	normalized := strings.ToLower(strings.TrimSpace(city))
	if normalized == "" {
		return ""
	}
	if code, ok := iataByCity[normalized]; ok {
		return code
	}
	if len(normalized) == 3 && isAlpha(normalized) {
		return strings.ToUpper(normalized)
	}
	return ""
}

// CityName reverse-looks-up the primary city name for a code.
func CityName(code string) string {
	upper := strings.ToUpper(strings.TrimSpace(code))
	best := ""
	for city, c := range iataByCity {
		if c != upper {
			continue
		}
		// Prefer the shortest ASCII name as the canonical one.
		if best == "" || (isASCII(city) && (!isASCII(best) || len(city) < len(best))) {
			best = city
		}
	}
	if best == "" {
		return ""
	}
	return titleCase(best)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		if len(runes) > 0 && runes[0] >= 'a' && runes[0] <= 'z' {
			runes[0] -= 'a' - 'A'
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > 127 {
			return false
		}
	}
	return true
}
