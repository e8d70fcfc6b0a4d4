// Package flights serves the demo flight schedule. The table mirrors the
// routes the assistant is demoed on and is shaped so a real inventory API
// can replace it without touching callers.
package flights

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flightlinehq/flightline/internal/airports"
)

// Flight is one scheduled service.
type Flight struct {
	Number          string   `json:"flight_number"`
	Origin          string   `json:"origin"`
	OriginCity      string   `json:"origin_city"`
	Destination     string   `json:"destination"`
	DestinationCity string   `json:"destination_city"`
	Departure       string   `json:"departure_time"`
	Arrival         string   `json:"arrival_time"`
	Duration        string   `json:"duration"`
	Aircraft        string   `json:"aircraft"`
	PriceEconomy    int      `json:"price_economy"`
	PriceBusiness   int      `json:"price_business"`
	Days            []string `json:"days"`
	Type            string   `json:"type"`
}

var daily = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

var schedule = []Flight{
	// Delhi - Mumbai (high frequency)
	{Number: "AI 865", Origin: "DEL", OriginCity: "Delhi", Destination: "BOM", DestinationCity: "Mumbai",
		Departure: "06:00", Arrival: "08:10", Duration: "2h 10m", Aircraft: "Airbus A320",
		PriceEconomy: 4500, PriceBusiness: 12000, Days: daily, Type: "domestic"},
	{Number: "AI 677", Origin: "DEL", OriginCity: "Delhi", Destination: "BOM", DestinationCity: "Mumbai",
		Departure: "09:30", Arrival: "11:45", Duration: "2h 15m", Aircraft: "Boeing 787",
		PriceEconomy: 5200, PriceBusiness: 14000, Days: daily, Type: "domestic"},
	{Number: "AI 863", Origin: "DEL", OriginCity: "Delhi", Destination: "BOM", DestinationCity: "Mumbai",
		Departure: "14:15", Arrival: "16:30", Duration: "2h 15m", Aircraft: "Airbus A320",
		PriceEconomy: 4800, PriceBusiness: 13000, Days: daily, Type: "domestic"},
	{Number: "AI 805", Origin: "DEL", OriginCity: "Delhi", Destination: "BOM", DestinationCity: "Mumbai",
		Departure: "18:00", Arrival: "20:15", Duration: "2h 15m", Aircraft: "Airbus A321",
		PriceEconomy: 5500, PriceBusiness: 15000, Days: daily, Type: "domestic"},
	// Mumbai - Delhi
	{Number: "AI 866", Origin: "BOM", OriginCity: "Mumbai", Destination: "DEL", DestinationCity: "Delhi",
		Departure: "07:00", Arrival: "09:15", Duration: "2h 15m", Aircraft: "Airbus A320",
		PriceEconomy: 4600, PriceBusiness: 12500, Days: daily, Type: "domestic"},
	{Number: "AI 678", Origin: "BOM", OriginCity: "Mumbai", Destination: "DEL", DestinationCity: "Delhi",
		Departure: "12:00", Arrival: "14:20", Duration: "2h 20m", Aircraft: "Boeing 787",
		PriceEconomy: 5300, PriceBusiness: 14500, Days: daily, Type: "domestic"},
	// Delhi - Bangalore
	{Number: "AI 503", Origin: "DEL", OriginCity: "Delhi", Destination: "BLR", DestinationCity: "Bangalore",
		Departure: "08:00", Arrival: "10:45", Duration: "2h 45m", Aircraft: "Airbus A320",
		PriceEconomy: 5500, PriceBusiness: 15000, Days: daily, Type: "domestic"},
	{Number: "AI 807", Origin: "DEL", OriginCity: "Delhi", Destination: "BLR", DestinationCity: "Bangalore",
		Departure: "15:30", Arrival: "18:15", Duration: "2h 45m", Aircraft: "Airbus A321",
		PriceEconomy: 6000, PriceBusiness: 16000, Days: daily, Type: "domestic"},
	// Mumbai - Bangalore
	{Number: "AI 619", Origin: "BOM", OriginCity: "Mumbai", Destination: "BLR", DestinationCity: "Bangalore",
		Departure: "10:00", Arrival: "11:30", Duration: "1h 30m", Aircraft: "Airbus A320",
		PriceEconomy: 4000, PriceBusiness: 11000, Days: daily, Type: "domestic"},
	{Number: "AI 623", Origin: "BOM", OriginCity: "Mumbai", Destination: "BLR", DestinationCity: "Bangalore",
		Departure: "16:45", Arrival: "18:15", Duration: "1h 30m", Aircraft: "Airbus A320",
		PriceEconomy: 4200, PriceBusiness: 11500, Days: daily, Type: "domestic"},
	// Mumbai - Goa
	{Number: "AI 631", Origin: "BOM", OriginCity: "Mumbai", Destination: "GOI", DestinationCity: "Goa",
		Departure: "09:00", Arrival: "10:15", Duration: "1h 15m", Aircraft: "Airbus A319",
		PriceEconomy: 3500, PriceBusiness: 9000, Days: daily, Type: "domestic"},
	{Number: "AI 635", Origin: "BOM", OriginCity: "Mumbai", Destination: "GOI", DestinationCity: "Goa",
		Departure: "14:30", Arrival: "15:45", Duration: "1h 15m", Aircraft: "Airbus A319",
		PriceEconomy: 3800, PriceBusiness: 9500, Days: daily, Type: "domestic"},
	// International
	{Number: "AI 161", Origin: "DEL", OriginCity: "Delhi", Destination: "LHR", DestinationCity: "London",
		Departure: "02:00", Arrival: "07:15", Duration: "9h 15m", Aircraft: "Boeing 787-8",
		PriceEconomy: 45000, PriceBusiness: 180000, Days: daily, Type: "international"},
	{Number: "AI 101", Origin: "DEL", OriginCity: "Delhi", Destination: "JFK", DestinationCity: "New York",
		Departure: "11:30", Arrival: "15:00", Duration: "15h 30m", Aircraft: "Boeing 777-300ER",
		PriceEconomy: 65000, PriceBusiness: 250000, Days: daily, Type: "international"},
	{Number: "AI 971", Origin: "BOM", OriginCity: "Mumbai", Destination: "DXB", DestinationCity: "Dubai",
		Departure: "04:00", Arrival: "06:15", Duration: "3h 15m", Aircraft: "Airbus A320",
		PriceEconomy: 18000, PriceBusiness: 65000, Days: daily, Type: "international"},
	{Number: "AI 975", Origin: "BOM", OriginCity: "Mumbai", Destination: "DXB", DestinationCity: "Dubai",
		Departure: "21:00", Arrival: "23:15", Duration: "3h 15m", Aircraft: "Airbus A321",
		PriceEconomy: 19000, PriceBusiness: 68000, Days: daily, Type: "international"},
	{Number: "AI 381", Origin: "DEL", OriginCity: "Delhi", Destination: "SIN", DestinationCity: "Singapore",
		Departure: "23:00", Arrival: "07:30", Duration: "6h 30m", Aircraft: "Boeing 787-8",
		PriceEconomy: 35000, PriceBusiness: 140000, Days: daily, Type: "international"},
}

// Service answers flight queries against the schedule.
type Service struct {
	flights []Flight
	log     zerolog.Logger
}

// NewService creates the flight service over the built-in schedule.
func NewService() *Service {
	return &Service{
		flights: schedule,
		log:     log.With().Str("component", "flights").Logger(),
	}
}

// normalizeLocation resolves a city name or code to an IATA code. Unknown
// locations pass through uppercased so searches fail cleanly rather than
// erroring.
func normalizeLocation(location string) string {
	if code := airports.Lookup(location); code != "" {
		return code
	}
	return strings.ToUpper(strings.TrimSpace(location))
}

// Search returns flights on the given route sorted by departure time.
// Origin and destination accept city names or IATA codes.
func (s *Service) Search(origin, destination string, maxResults int) []Flight {
	if maxResults <= 0 {
		maxResults = 10
	}
	originCode := normalizeLocation(origin)
	destCode := normalizeLocation(destination)

	var matches []Flight
	for _, f := range s.flights {
		if f.Origin == originCode && f.Destination == destCode {
			matches = append(matches, f)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Departure < matches[j].Departure
	})
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	s.log.Debug().Str("origin", originCode).Str("destination", destCode).
		Int("results", len(matches)).Msg("flight search")
	return matches
}

// ByNumber returns the flight with the given number, tolerating missing
// spacing and case ("ai865" matches "AI 865").
func (s *Service) ByNumber(number string) (Flight, bool) {
	want := canonicalNumber(number)
	for _, f := range s.flights {
		if canonicalNumber(f.Number) == want {
			return f, true
		}
	}
	return Flight{}, false
}

func canonicalNumber(number string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(number)), " ", "")
}

// FormatFlight renders one flight for chat display.
func FormatFlight(f Flight) string {
	return fmt.Sprintf(
		"✈️ **%s** - %s (%s) → %s (%s)\n"+
			"   ⏰ %s - %s (%s)\n"+
			"   💺 %s\n"+
			"   💰 Economy: ₹%s | Business: ₹%s",
		f.Number, f.OriginCity, f.Origin, f.DestinationCity, f.Destination,
		f.Departure, f.Arrival, f.Duration,
		f.Aircraft,
		formatPrice(f.PriceEconomy), formatPrice(f.PriceBusiness),
	)
}

// FormatList renders a flight list for chat display.
func FormatList(flights []Flight) string {
	if len(flights) == 0 {
		return "No flights found for this route."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d flight(s):\n\n", len(flights))
	for _, f := range flights {
		b.WriteString(FormatFlight(f))
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}

// formatPrice groups digits in thousands (4500 -> "4,500").
func formatPrice(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
