package parser

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"panos-policy-evaluator/internal/model"
)

// MariaDBProvider loads raw security-policy rules from a policy_export table
// populated by an offline export job. The table carries the same field shape
// as the CSV export, one row per rule, list fields semicolon-joined.
type MariaDBProvider struct {
	db *sql.DB
}

// NewMariaDBProvider opens and pings a connection for the given DSN.
func NewMariaDBProvider(dsn string) (*MariaDBProvider, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &MariaDBProvider{db: db}, nil
}

// Close releases the database connection.
func (p *MariaDBProvider) Close() error {
	return p.db.Close()
}

// FetchRules reads the full exported rulebase in position order.
func (p *MariaDBProvider) FetchRules() ([]model.RawRule, error) {
	rows, err := p.db.Query(`SELECT position, rule_name, action, from_zones, to_zones,
		sources, destinations, applications, services, tags,
		hit_count, last_hit, created, modified,
		log_setting, profile_setting, is_disabled
		FROM policy_export ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query policy_export: %w", err)
	}
	defer rows.Close()

	var raws []model.RawRule
	for rows.Next() {
		var position int
		var name, action string
		var fromZones, toZones, sources, destinations, applications, services,
			tags, hitCount, lastHit, created, modified,
			logSetting, profileSetting, disabled sql.NullString

		if err := rows.Scan(&position, &name, &action, &fromZones, &toZones,
			&sources, &destinations, &applications, &services, &tags,
			&hitCount, &lastHit, &created, &modified,
			&logSetting, &profileSetting, &disabled); err != nil {
			return nil, fmt.Errorf("failed to scan policy row: %w", err)
		}

		raws = append(raws, buildRawRule(position, name, action, map[string]sql.NullString{
			model.KeyFromZones:      fromZones,
			model.KeyToZones:        toZones,
			model.KeySources:        sources,
			model.KeyDestinations:   destinations,
			model.KeyApplications:   applications,
			model.KeyServices:       services,
			model.KeyTags:           tags,
			model.KeyHitCount:       hitCount,
			model.KeyLastHit:        lastHit,
			model.KeyCreated:        created,
			model.KeyModified:       modified,
			model.KeyLogSetting:     logSetting,
			model.KeyProfileSetting: profileSetting,
			model.KeyDisabled:       disabled,
		}))
	}
	return raws, rows.Err()
}

// buildRawRule assembles a RawRule from nullable columns, leaving NULL
// fields absent so the normalizer applies its wildcard defaulting.
func buildRawRule(position int, name, action string, cols map[string]sql.NullString) model.RawRule {
	raw := model.RawRule{
		model.KeyPosition: fmt.Sprintf("%d", position),
		model.KeyName:     name,
		model.KeyAction:   action,
	}
	for key, val := range cols {
		if val.Valid && val.String != "" {
			raw[key] = val.String
		}
	}
	return raw
}
