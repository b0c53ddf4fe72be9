package engine

import (
	"panos-policy-evaluator/internal/model"
)

// testRule builds an enabled allow rule matching all traffic; tests narrow
// the fields they care about.
func testRule(name string, pos int) model.RuleRecord {
	return model.RuleRecord{
		Name:         name,
		Position:     pos,
		Action:       model.ActionAllow,
		FromZones:    model.Wildcard(),
		ToZones:      model.Wildcard(),
		Sources:      model.Wildcard(),
		Destinations: model.Wildcard(),
		Applications: model.Wildcard(),
		Services:     model.Wildcard(),
	}
}
