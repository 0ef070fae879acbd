package tables

import (
	"regexp"
	"sort"
	"strings"

	"github.com/hyperjump/brainobs/internal/models"
)

var imageSetPattern = regexp.MustCompile(`images_([A-Z])`)

// ImageSet returns the image set letter encoded in a session type, or "" if none.
func ImageSet(sessionType string) string {
	m := imageSetPattern.FindStringSubmatch(sessionType)
	if m == nil {
		return ""
	}
	return m[1]
}

// HasOmissions reports whether a session of this type presents omitted stimuli.
func HasOmissions(sessionType string) bool {
	s := strings.ToLower(sessionType)
	return strings.Contains(s, "ophys") && !strings.Contains(s, "habituation")
}

// Exposures holds the prior exposure counts of one behavior session.
type Exposures struct {
	SessionType *int
	ImageSet    *int
	Omissions   *int
}

// PriorExposures counts, for every behavior session in reference, how many earlier
// sessions of the same mouse shared its session type, its image set, or had omissions.
// Sessions with an empty session type are ignored.
func PriorExposures(reference []models.BehaviorSession) map[int64]Exposures {
	sessions := make([]models.BehaviorSession, 0, len(reference))
	for _, s := range reference {
		if s.SessionType != "" {
			sessions = append(sessions, s)
		}
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].DateOfAcquisition.Before(sessions[j].DateOfAcquisition)
	})

	type key struct{ mouse, value string }
	byType := make(map[key]int)
	byImageSet := make(map[key]int)
	omissions := make(map[string]int)

	out := make(map[int64]Exposures, len(sessions))
	for _, s := range sessions {
		var e Exposures
		tk := key{s.MouseID, s.SessionType}
		e.SessionType = intPtr(byType[tk])
		byType[tk]++

		if set := ImageSet(s.SessionType); set != "" {
			ik := key{s.MouseID, set}
			e.ImageSet = intPtr(byImageSet[ik])
			byImageSet[ik]++
		}

		e.Omissions = intPtr(omissions[s.MouseID])
		if HasOmissions(s.SessionType) {
			omissions[s.MouseID]++
		}
		out[s.BehaviorSessionID] = e
	}
	return out
}

// AddPriorExposures returns a copy of rows with exposure counts joined on behavior session ID.
func AddPriorExposures(rows []models.OphysSession, reference []models.BehaviorSession) []models.OphysSession {
	counts := PriorExposures(reference)
	out := make([]models.OphysSession, len(rows))
	for i, r := range rows {
		if e, ok := counts[r.BehaviorSessionID]; ok {
			r.PriorExposuresToSessionType = e.SessionType
			r.PriorExposuresToImageSet = e.ImageSet
			r.PriorExposuresToOmissions = e.Omissions
		}
		out[i] = r
	}
	return out
}

func intPtr(n int) *int {
	return &n
}
