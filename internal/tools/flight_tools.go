package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/flightlinehq/flightline/internal/airports"
	"github.com/flightlinehq/flightline/internal/flights"
)

const iataHint = "You MUST convert city names to their IATA codes. " +
	"Common mappings: Delhi=DEL, Mumbai=BOM, Bangalore=BLR, Chennai=MAA, " +
	"Kolkata=CCU, Hyderabad=HYD, Goa=GOI, London=LHR, New York=JFK, " +
	"Dubai=DXB, Singapore=SIN, Paris=CDG, Tokyo=NRT, Bangkok=BKK, " +
	"Beijing=PEK, Shanghai=PVG, Hong Kong=HKG, Sydney=SYD, Los Angeles=LAX. " +
	"ALWAYS use 3-letter uppercase codes like 'DEL', 'BOM', 'PEK'."

// SearchFlightsTool searches the flight schedule by route.
type SearchFlightsTool struct {
	Flights *flights.Service
}

func (t *SearchFlightsTool) Name() string { return "search_flights" }

func (t *SearchFlightsTool) Description() string {
	return "Search for Air India flights between two airports. " +
		"Use when users ask about flight schedules, times, availability, or prices. " +
		"CRITICAL: You MUST convert city names to 3-letter IATA airport codes. " +
		"Examples: 'Beijing' → 'PEK', 'Delhi' → 'DEL', 'Mumbai' → 'BOM', " +
		"'London' → 'LHR', 'New York' → 'JFK', 'Tokyo' → 'NRT'. " +
		"Also convert dates like 'tomorrow' or 'January 2nd' to YYYY-MM-DD format."
}

func (t *SearchFlightsTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"origin": map[string]any{
				"type":        "string",
				"description": "Origin airport as a 3-letter IATA code (REQUIRED). " + iataHint,
			},
			"destination": map[string]any{
				"type":        "string",
				"description": "Destination airport as a 3-letter IATA code (REQUIRED). " + iataHint,
			},
			"date": map[string]any{
				"type": "string",
				"description": "Travel date in one of these formats: " +
					"'today', 'tomorrow', or YYYY-MM-DD format (e.g., '2025-01-02'). " +
					"Default is 'tomorrow' if no date specified.",
			},
		},
		"required": []any{"origin", "destination"},
	}
}

func (t *SearchFlightsTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	origin := stringArg(args, "origin")
	destination := stringArg(args, "destination")
	log.Info().Str("tool", t.Name()).Str("origin", origin).
		Str("destination", destination).Msg("tool invoked")

	results := t.Flights.Search(origin, destination, 10)
	if len(results) == 0 {
		return fmt.Sprintf(
			"No Air India flights found from %s to %s. "+
				"Please check if the city names or airport codes are correct, "+
				"or try a different route.", origin, destination), nil
	}
	return flights.FormatList(results), nil
}

// FlightDetailsTool looks up one flight by number.
type FlightDetailsTool struct {
	Flights *flights.Service
}

func (t *FlightDetailsTool) Name() string { return "get_flight_details" }

func (t *FlightDetailsTool) Description() string {
	return "Get detailed information about a specific Air India flight by flight number. " +
		"Use when users ask about a specific flight like 'AI 865'."
}

func (t *FlightDetailsTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"flight_number": map[string]any{
				"type": "string",
				"description": "Air India flight number. " +
					"Examples: 'AI 865', 'AI677', '865'. " +
					"The 'AI' prefix is optional and will be added if missing.",
			},
		},
		"required": []any{"flight_number"},
	}
}

func (t *FlightDetailsTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	number := stringArg(args, "flight_number")
	log.Info().Str("tool", t.Name()).Str("flight_number", number).Msg("tool invoked")

	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(number)), "AI") {
		number = "AI " + strings.TrimSpace(number)
	}
	flight, ok := t.Flights.ByNumber(number)
	if !ok {
		return fmt.Sprintf("Flight %s not found. Please check the flight number.", number), nil
	}
	return flights.FormatFlight(flight), nil
}

// IATALookupTool resolves city names to airport codes.
type IATALookupTool struct{}

func (t *IATALookupTool) Name() string { return "lookup_iata_code" }

func (t *IATALookupTool) Description() string {
	return "Look up the 3-letter IATA airport code for a city or airport. " +
		"Use this tool when a user mentions a city and you need to find " +
		"its airport code before searching for flights. " +
		"The tool supports city names in multiple languages. " +
		"Examples: 'Cancún' → 'CUN', 'São Paulo' → 'GRU', '北京' → 'PEK'"
}

func (t *IATALookupTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city_name": map[string]any{
				"type": "string",
				"description": "Name of the city or airport to look up. " +
					"Can be in any language. " +
					"Examples: 'Delhi', 'New York', 'Londres', 'Tokyo', '東京'",
			},
		},
		"required": []any{"city_name"},
	}
}

func (t *IATALookupTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	city := stringArg(args, "city_name")
	log.Info().Str("tool", t.Name()).Str("city", city).Msg("tool invoked")

	code := airports.Lookup(city)
	if code == "" {
		return fmt.Sprintf(
			"Could not find IATA code for '%s'. "+
				"Please verify the city name spelling or try the official airport name.", city), nil
	}
	return fmt.Sprintf("The IATA airport code for %s is: %s", city, code), nil
}

// DefaultRegistry wires the standard toolset over a flight service.
func DefaultRegistry(fs *flights.Service) *Registry {
	return NewRegistry(
		&SearchFlightsTool{Flights: fs},
		&FlightDetailsTool{Flights: fs},
		&IATALookupTool{},
	)
}
