// Package parser loads raw security-policy rules from the supported
// providers (exported CSV files, MariaDB policy exports) into the field-keyed
// mapping shape the normalizer consumes. Providers do no analysis; they only
// translate native column names to canonical keys.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"panos-policy-evaluator/internal/model"
)

// csvColumns maps the fixed PAN-OS policy export column set to canonical
// RawRule keys. Multi-valued cells keep their semicolon separators; the
// normalizer splits them.
var csvColumns = map[string]string{
	"name":                 model.KeyName,
	"position":             model.KeyPosition,
	"action":               model.KeyAction,
	"source zone":          model.KeyFromZones,
	"destination zone":     model.KeyToZones,
	"source address":       model.KeySources,
	"destination address":  model.KeyDestinations,
	"application":          model.KeyApplications,
	"service":              model.KeyServices,
	"tags":                 model.KeyTags,
	"rule usage hit count": model.KeyHitCount,
	"rule usage last hit":  model.KeyLastHit,
	"created":              model.KeyCreated,
	"modified":             model.KeyModified,
	"options":              model.KeyLogSetting,
	"profile":              model.KeyProfileSetting,
}

// disabledPrefix marks disabled rules in PAN-OS exports, on the rule name
// and sometimes on tags.
const disabledPrefix = "[Disabled]"

// ReadPolicyCSV parses an exported security-policy CSV into raw rule
// mappings, preserving export order. Columns outside the expected set are
// ignored; a missing Name column is an error. When the export carries no
// Position column, the row order provides the position.
func ReadPolicyCSV(r io.Reader) ([]model.RawRule, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read header: %w", err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	if _, ok := colMap["name"]; !ok {
		return nil, fmt.Errorf("could not find 'Name' column in policy export")
	}

	var raws []model.RawRule
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row+2, err)
		}
		row++

		raw := model.RawRule{}
		for col, key := range csvColumns {
			idx, ok := colMap[col]
			if !ok || idx >= len(record) {
				continue
			}
			raw[key] = strings.TrimSpace(record[idx])
		}
		if raw[model.KeyPosition] == "" {
			raw[model.KeyPosition] = strconv.Itoa(row)
		}

		if name, disabled := stripDisabled(raw[model.KeyName]); disabled {
			raw[model.KeyName] = name
			raw[model.KeyDisabled] = "true"
		}
		raw[model.KeyTags] = cleanTags(raw, model.KeyTags)

		raws = append(raws, raw)
	}
	return raws, nil
}

func cleanTags(raw model.RawRule, key string) string {
	parts := strings.Split(raw[key], model.ListSeparator)
	for i, p := range parts {
		name, disabled := stripDisabled(strings.TrimSpace(p))
		if disabled {
			raw[model.KeyDisabled] = "true"
		}
		parts[i] = name
	}
	return strings.Join(parts, model.ListSeparator)
}

func stripDisabled(s string) (string, bool) {
	if strings.HasPrefix(s, disabledPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(s, disabledPrefix)), true
	}
	return s, false
}
