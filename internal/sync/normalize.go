package sync

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/vkarpenko/placesync/internal/provider"
)

// starTokens maps the provider's enumerated rating tokens to integers.
var starTokens = map[string]int{
	"STAR_ONE":   1,
	"STAR_TWO":   2,
	"STAR_THREE": 3,
	"STAR_FOUR":  4,
	"STAR_FIVE":  5,
}

// StarRating maps a raw provider rating to an integer in [0,5]. The value
// arrives either as an enum token ("STAR_ONE".."STAR_FIVE"), a number, or a
// numeric string; anything unrecognized maps to 0. Never fails.
func StarRating(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, ok := starTokens[s]; ok {
			return v
		}
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return clampStars(n)
		}
		return 0
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return clampStars(n)
	}

	return 0
}

func clampStars(n float64) int {
	if math.IsNaN(n) || n < 0 {
		return 0
	}
	if n > 5 {
		return 5
	}
	return int(math.Round(n))
}

// FormatAddress renders a provider address as a single display string:
// address lines, locality, administrative area, postal code and country,
// skipping empty segments, joined with ", ".
func FormatAddress(addr *provider.Address) string {
	if addr == nil {
		return ""
	}

	segments := make([]string, 0, len(addr.AddressLines)+4)
	for _, line := range addr.AddressLines {
		if s := strings.TrimSpace(line); s != "" {
			segments = append(segments, s)
		}
	}
	for _, s := range []string{addr.Locality, addr.AdministrativeArea, addr.PostalCode, addr.RegionCode} {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}

	return strings.Join(segments, ", ")
}

// SafeKey hashes an external id into a filesystem- and column-safe token by
// replacing every non-alphanumeric rune with an underscore.
func SafeKey(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, id)
}

// ResourcePath resolves the fully-qualified provider path for a location.
// An id that already starts with "accounts/" is used verbatim, otherwise
// the path is composed from the account and bare location ids.
func ResourcePath(accountID, locationID string) string {
	if strings.HasPrefix(locationID, "accounts/") {
		return locationID
	}
	return "accounts/" + accountID + "/locations/" + locationID
}

// oneOrMany decodes a JSON value that may be either a single object or an
// array of objects into a slice. Used once at the fetcher boundary for
// fields the provider serves in both shapes. Undecodable input yields nil.
func oneOrMany[T any](raw json.RawMessage) []T {
	if len(raw) == 0 {
		return nil
	}

	var many []T
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}

	var one T
	if err := json.Unmarshal(raw, &one); err == nil {
		return []T{one}
	}

	return nil
}
