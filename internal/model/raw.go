package model

// RawRule is the loosely typed field-value mapping supplied by an input
// provider (CSV export or database), before normalization. Multi-valued
// fields are joined with the list separator.
type RawRule map[string]string

// Canonical RawRule keys. Providers translate their native column names to
// these; the normalizer reads nothing else.
const (
	KeyName           = "name"
	KeyPosition       = "position"
	KeyAction         = "action"
	KeyFromZones      = "from_zones"
	KeyToZones        = "to_zones"
	KeySources        = "sources"
	KeyDestinations   = "destinations"
	KeyApplications   = "applications"
	KeyServices       = "services"
	KeyTags           = "tags"
	KeyHitCount       = "hit_count"
	KeyLastHit        = "last_hit"
	KeyCreated        = "created"
	KeyModified       = "modified"
	KeyLogSetting     = "log_setting"
	KeyProfileSetting = "profile_setting"
	KeyDisabled       = "disabled"
)

// AnyToken is the platform value meaning "matches anything" in a match field.
const AnyToken = "any"

// ListSeparator joins multi-valued raw fields.
const ListSeparator = ";"
