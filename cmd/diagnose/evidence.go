package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samvad-hq/samvad-diagnosis-client/pkg/medapi"
)

// parseEvidence reads "id[:choice[:source]]" tokens, e.g. "s_21", "s_98:absent", "p_7:present:initial".
func parseEvidence(tokens []string) ([]medapi.Evidence, error) {
	out := make([]medapi.Evidence, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		parts := strings.Split(tok, ":")
		if len(parts) > 3 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("%w: malformed evidence %q", medapi.ErrInvalidArgument, tok)
		}

		choice := medapi.Present
		if len(parts) > 1 {
			switch p := medapi.Presence(strings.ToLower(strings.TrimSpace(parts[1]))); p {
			case medapi.Present, medapi.Absent, medapi.Unknown:
				choice = p
			default:
				return nil, fmt.Errorf("%w: unknown choice %q in %q", medapi.ErrInvalidArgument, parts[1], tok)
			}
		}

		var opts []medapi.EvidenceOption
		if len(parts) == 3 && strings.TrimSpace(parts[2]) != "" {
			opts = append(opts, medapi.WithSource(strings.TrimSpace(parts[2])))
		}
		out = append(out, medapi.NewEvidence(strings.TrimSpace(parts[0]), choice, opts...))
	}
	return out, nil
}

// parseExtras converts key=value flags, decoding booleans and numbers.
func parseExtras(raw map[string]string) medapi.Extras {
	if len(raw) == 0 {
		return nil
	}
	out := make(medapi.Extras, len(raw))
	for k, v := range raw {
		switch strings.ToLower(v) {
		case "true":
			out[k] = true
			continue
		case "false":
			out[k] = false
			continue
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			out[k] = n
			continue
		}
		out[k] = v
	}
	return out
}

func ageFrom(value int, unit string) (medapi.Age, error) {
	return medapi.NewAge(value, medapi.AgeUnit(strings.ToLower(strings.TrimSpace(unit))))
}
