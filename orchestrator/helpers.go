package orchestrator

import (
	"github.com/sirupsen/logrus"

	"github.com/andreas-weise/individual-variation/analysis"
	"github.com/andreas-weise/individual-variation/measure"
)

// isSpeakerKey reports whether k names one speaker in one task.
func isSpeakerKey(k measure.Key) bool {
	return !k.Session.IsAll() && !k.Task.IsAll() && !k.Speaker.IsAll()
}

func splitAggregates(entries []analysis.Entry) (speakers, aggregates []analysis.Entry) {
	for _, e := range entries {
		if isSpeakerKey(e.Key) {
			speakers = append(speakers, e)
		} else {
			aggregates = append(aggregates, e)
		}
	}
	return speakers, aggregates
}

func summaryFields(s analysis.Summary) logrus.Fields {
	return logrus.Fields{
		"speakers":    s.Speakers,
		"entraining":  s.Entraining,
		"share":       s.EntrainingShare,
		"positive":    s.ValenceShare[analysis.Positive],
		"negative":    s.ValenceShare[analysis.Negative],
		"mixed":       s.ValenceShare[analysis.Mixed],
		"max_feature": s.MaxFeatures,
	}
}

// roleGroups splits deception corpus entries by interview role; other
// corpora form a single group.
func roleGroups(corpus analysis.Corpus, entries []analysis.Entry) (names []string, groups [][]analysis.Entry) {
	if corpus != analysis.Deception {
		return []string{string(corpus)}, [][]analysis.Entry{entries}
	}
	return []string{"XCDC-EE", "XCDC-ER"}, [][]analysis.Entry{
		analysis.ByRole(entries, analysis.RoleInterviewee),
		analysis.ByRole(entries, analysis.RoleInterviewer),
	}
}
