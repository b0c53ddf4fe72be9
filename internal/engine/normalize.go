package engine

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"panos-policy-evaluator/internal/model"
)

// timestampLayouts are tried in order when parsing raw timestamp cells.
// PAN-OS exports use the slash form; API payloads use RFC 3339.
var timestampLayouts = []string{
	"2006/01/02 15:04:05",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Normalize converts raw field-value mappings from any provider into the
// canonical ordered rule list. Unknown or absent match fields default to the
// wildcard. Duplicate names or positions fail with a ValidationError and no
// output; unparseable numeric and timestamp cells default to zero/unset and
// are reported in the warning list instead.
func Normalize(raw []model.RawRule) ([]model.RuleRecord, []model.Warning, error) {
	records := make([]model.RuleRecord, 0, len(raw))
	var warnings []model.Warning

	seenNames := make(map[string]bool, len(raw))
	seenPositions := make(map[int]string, len(raw))

	for i, rr := range raw {
		name := strings.TrimSpace(rr[model.KeyName])
		if name == "" {
			return nil, nil, &ValidationError{
				Field:  model.KeyName,
				Reason: fmt.Sprintf("record %d has no rule name", i+1),
			}
		}
		if seenNames[name] {
			return nil, nil, &ValidationError{
				Rule:   name,
				Field:  model.KeyName,
				Reason: "duplicate rule name",
			}
		}
		seenNames[name] = true

		rec := model.RuleRecord{Name: name}

		pos, warn := parseInt(rr[model.KeyPosition])
		if warn != "" {
			warnings = append(warnings, model.Warning{Rule: name, Field: model.KeyPosition, Message: warn})
		}
		rec.Position = pos
		if prev, dup := seenPositions[pos]; dup {
			return nil, nil, &ValidationError{
				Rule:   name,
				Field:  model.KeyPosition,
				Reason: fmt.Sprintf("position %d already used by rule %q", pos, prev),
			}
		}
		seenPositions[pos] = name

		rec.Action, warn = parseAction(rr[model.KeyAction])
		if warn != "" {
			warnings = append(warnings, model.Warning{Rule: name, Field: model.KeyAction, Message: warn})
		}

		rec.Disabled = parseBool(rr[model.KeyDisabled])

		rec.FromZones = parseFieldSet(rr[model.KeyFromZones])
		rec.ToZones = parseFieldSet(rr[model.KeyToZones])
		rec.Sources = parseFieldSet(rr[model.KeySources])
		rec.Destinations = parseFieldSet(rr[model.KeyDestinations])
		rec.Applications = parseFieldSet(rr[model.KeyApplications])
		rec.Services = parseFieldSet(rr[model.KeyServices])

		rec.Tags = splitList(rr[model.KeyTags])

		hits, warn := parseUint(rr[model.KeyHitCount])
		if warn != "" {
			warnings = append(warnings, model.Warning{Rule: name, Field: model.KeyHitCount, Message: warn})
		}
		rec.HitCount = hits

		for _, ts := range []struct {
			key string
			dst *time.Time
		}{
			{model.KeyLastHit, &rec.LastHit},
			{model.KeyCreated, &rec.Created},
			{model.KeyModified, &rec.Modified},
		} {
			t, warn := parseTimestamp(rr[ts.key])
			if warn != "" {
				warnings = append(warnings, model.Warning{Rule: name, Field: ts.key, Message: warn})
			}
			*ts.dst = t
		}

		rec.LogSetting = strings.TrimSpace(rr[model.KeyLogSetting])
		rec.ProfileSetting = strings.TrimSpace(rr[model.KeyProfileSetting])

		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Position < records[j].Position
	})

	return records, warnings, nil
}

// parseFieldSet maps a raw match-field cell to its tagged representation.
// Absent or empty cells and the platform "any" token mean wildcard.
func parseFieldSet(raw string) model.FieldSet {
	tokens := splitList(raw)
	if len(tokens) == 0 {
		return model.Wildcard()
	}
	for _, tok := range tokens {
		if strings.EqualFold(tok, model.AnyToken) {
			return model.Wildcard()
		}
	}
	return model.NewFieldSet(tokens...)
}

func splitList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, model.ListSeparator) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseAction(raw string) (model.Action, string) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "allow", "accept", "permit":
		return model.ActionAllow, ""
	case "deny", "drop", "reset-client", "reset-server", "reset-both":
		return model.ActionDeny, ""
	case "":
		return model.ActionAllow, "missing action, defaulted to allow"
	default:
		return model.ActionAllow, fmt.Sprintf("unknown action %q, defaulted to allow", raw)
	}
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1", "disable", "disabled":
		return true
	default:
		return false
	}
}

func parseInt(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, "missing position, defaulted to 0"
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Sprintf("unparseable position %q, defaulted to 0", raw)
	}
	return n, ""
}

func parseUint(raw string) (uint64, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return 0, ""
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Sprintf("unparseable hit count %q, defaulted to 0", raw)
	}
	return n, ""
}

func parseTimestamp(raw string) (time.Time, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return time.Time{}, ""
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, ""
		}
	}
	return time.Time{}, fmt.Sprintf("unparseable timestamp %q, left unset", raw)
}
