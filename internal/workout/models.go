// Package workout is the session-logging side of the recommendation
// pipeline: a sqlite-backed exercise catalog and session log, plus the
// service that feeds history into the progression engine.
package workout

import "errors"

// ErrNotFound is returned when an exercise or session does not exist.
var ErrNotFound = errors.New("not found")

// EquipmentClass groups exercises by the smallest weight step their
// equipment allows. The class-to-increment mapping is configuration data,
// not engine logic.
type EquipmentClass string

// Equipment class constants.
const (
	EquipmentUpperCompound  EquipmentClass = "upper_compound"
	EquipmentUpperIsolation EquipmentClass = "upper_isolation"
	EquipmentLowerCompound  EquipmentClass = "lower_compound"
	EquipmentLowerIsolation EquipmentClass = "lower_isolation"
)

// Exercise is a catalog entry.
type Exercise struct {
	ID                  int64          `json:"id"`
	Name                string         `json:"name"`
	EquipmentClass      EquipmentClass `json:"equipment_class"`
	DescriptionMarkdown string         `json:"description_markdown"`
}
