package recommender

import (
	"math"
	"sort"
	"strings"

	"gigrecs/domain"
)

// Taste-signal keys recognized in the request context. Different upstream
// services report under different names; tokens are unioned per signal
// type.
var (
	contextGenreKeys  = []string{"spotify_genres", "soundcloud_genres", "preferred_genres", "genres"}
	contextArtistKeys = []string{"spotify_artists", "soundcloud_artists", "preferred_artists", "top_artists", "artists"}
)

const (
	genreBoost      = 0.15
	maxGenreBoosts  = 3
	artistBoost     = 0.25
	maxArtistBoosts = 2

	reasonGenreMatch  = "taste_genre_match"
	reasonArtistMatch = "taste_artist_match"
)

// BoostWithContext re-ranks recommendations using taste signals from the
// request context. When no tokens can be extracted the input is returned
// untouched, original order included.
func BoostWithContext(recs []domain.ScoredEvent, reqCtx map[string]any) []domain.ScoredEvent {
	genres := extractContextTokens(reqCtx, contextGenreKeys)
	artists := extractContextTokens(reqCtx, contextArtistKeys)
	if len(genres) == 0 && len(artists) == 0 {
		return recs
	}

	out := make([]domain.ScoredEvent, len(recs))
	copy(out, recs)

	for i := range out {
		boost, reasons := boostFor(&out[i], genres, artists)
		out[i].Score = round4(out[i].Score + boost)
		out[i].ContextReasons = appendUnique(out[i].ContextReasons, reasons...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out
}

func boostFor(rec *domain.ScoredEvent, genres, artists []string) (float64, []string) {
	boost := 0.0
	var reasons []string

	if len(genres) > 0 {
		candidateGenres := tokenize(rec.Genre)
		matches := 0
		for _, token := range genres {
			if matchesAny(token, candidateGenres) {
				matches++
				if matches >= maxGenreBoosts {
					break
				}
			}
		}
		if matches > 0 {
			boost += float64(matches) * genreBoost
			reasons = append(reasons, reasonGenreMatch)
		}
	}

	if len(artists) > 0 {
		text := strings.ToLower(rec.Title + " " + rec.ArtistName)
		matches := 0
		for _, token := range artists {
			if strings.Contains(text, token) {
				matches++
				if matches >= maxArtistBoosts {
					break
				}
			}
		}
		if matches > 0 {
			boost += float64(matches) * artistBoost
			reasons = append(reasons, reasonArtistMatch)
		}
	}

	return boost, reasons
}

// matchesAny is a substring match in either direction, so "indie rock"
// still matches a candidate tagged plain "rock".
func matchesAny(token string, candidates []string) bool {
	for _, c := range candidates {
		if strings.Contains(c, token) || strings.Contains(token, c) {
			return true
		}
	}
	return false
}

// extractContextTokens unions tokens across every recognized key,
// deduplicated in first-seen order.
func extractContextTokens(reqCtx map[string]any, keys []string) []string {
	if reqCtx == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	for _, key := range keys {
		v, ok := reqCtx[key]
		if !ok {
			continue
		}
		for _, token := range flattenTokens(v) {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			out = append(out, token)
		}
	}

	return out
}

// flattenTokens handles the value shapes upstream services send: plain
// strings, nested lists, and objects carrying a name or genre field.
func flattenTokens(v any) []string {
	switch val := v.(type) {
	case string:
		return tokenize(val)
	case []string:
		var out []string
		for _, s := range val {
			out = append(out, tokenize(s)...)
		}
		return out
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, flattenTokens(item)...)
		}
		return out
	case map[string]any:
		if name, ok := val["name"].(string); ok {
			return tokenize(name)
		}
		if genre, ok := val["genre"].(string); ok {
			return tokenize(genre)
		}
	}
	return nil
}

// tokenize lower-cases and splits on the separators upstream services
// use, dropping empty tokens.
func tokenize(s string) []string {
	s = strings.ToLower(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == '/' || r == ';' || r == '|'
	})

	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func appendUnique(existing []string, tags ...string) []string {
	for _, tag := range tags {
		found := false
		for _, e := range existing {
			if e == tag {
				found = true
				break
			}
		}
		if !found {
			existing = append(existing, tag)
		}
	}
	return existing
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
