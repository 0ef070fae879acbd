// Package models defines core data structures for project metadata, file records and recordings.
package models

import "time"

// BehaviorSession is one row of the project-wide behavior sessions table.
// It is the reference table exposure counts are computed against.
type BehaviorSession struct {
	BehaviorSessionID int64     `json:"behavior_session_id" db:"behavior_session_id"`
	MouseID           string    `json:"mouse_id" db:"mouse_id"`
	SessionType       string    `json:"session_type" db:"session_type"`
	DateOfAcquisition time.Time `json:"date_of_acquisition" db:"date_of_acquisition"`
	EquipmentName     string    `json:"equipment_name,omitempty" db:"equipment_name"`
}

// OphysSession is one row of the behavior-ophys sessions table. After exploding on
// experiment ID each row carries a single OphysExperimentID.
type OphysSession struct {
	OphysSessionID     int64     `json:"ophys_session_id" db:"ophys_session_id"`
	BehaviorSessionID  int64     `json:"behavior_session_id" db:"behavior_session_id"`
	OphysExperimentIDs []int64   `json:"ophys_experiment_ids,omitempty" db:"ophys_experiment_ids"`
	OphysContainerIDs  []int64   `json:"ophys_container_ids,omitempty" db:"ophys_container_ids"`
	MouseID            string    `json:"mouse_id" db:"mouse_id"`
	SessionType        string    `json:"session_type" db:"session_type"`
	DateOfAcquisition  time.Time `json:"date_of_acquisition" db:"date_of_acquisition"`
	EquipmentName      string    `json:"equipment_name,omitempty" db:"equipment_name"`
	Genotype           string    `json:"genotype,omitempty" db:"genotype"`
	Sex                string    `json:"sex,omitempty" db:"sex"`
	AgeInDays          int       `json:"age_in_days,omitempty" db:"age_in_days"`
	ProjectCode        string    `json:"project_code,omitempty" db:"project_code"`

	// Derived by the sessions table post-processing; nil when unknown.
	PriorExposuresToSessionType *int `json:"prior_exposures_to_session_type" db:"-"`
	PriorExposuresToImageSet    *int `json:"prior_exposures_to_image_set" db:"-"`
	PriorExposuresToOmissions   *int `json:"prior_exposures_to_omissions" db:"-"`

	// Set only on exploded rows.
	OphysExperimentID int64 `json:"ophys_experiment_id,omitempty" db:"-"`
}
