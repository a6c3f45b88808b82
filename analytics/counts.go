// Package analytics derives the dashboard's charts and counters from a
// snapshot. Everything here is a pure function of its arguments.
package analytics

import (
	"sort"
	"strconv"

	"resellerdash/models"
	"resellerdash/normalize"
)

const templateLabelLimit = 20

// StatusCounts counts customers per status bucket. All four buckets are
// present; customers with an unrecognised status are not counted.
func StatusCounts(customers []models.Customer) map[models.CustomerStatus]int {
	counts := make(map[models.CustomerStatus]int, len(models.CustomerStatuses))
	for _, s := range models.CustomerStatuses {
		counts[s] = 0
	}
	for _, c := range customers {
		status := normalize.CustomerStatus(string(c.Status))
		if _, ok := counts[status]; ok {
			counts[status]++
		}
	}
	return counts
}

// LeadStatusCounts counts leads per pipeline bucket.
func LeadStatusCounts(leads []models.Lead) map[models.LeadStatus]int {
	counts := make(map[models.LeadStatus]int, len(models.LeadStatuses))
	for _, s := range models.LeadStatuses {
		counts[s] = 0
	}
	for _, l := range leads {
		if _, ok := counts[l.Status]; ok {
			counts[l.Status]++
		}
	}
	return counts
}

// LocationCounts counts customers per province bucket.
func LocationCounts(customers []models.Customer) map[models.Location]int {
	counts := make(map[models.Location]int, len(models.Locations))
	for _, loc := range models.Locations {
		counts[loc] = 0
	}
	for _, c := range customers {
		counts[normalize.ClassifyLocation(c.GPS)]++
	}
	return counts
}

// TemplateCount is one slice of the template pie.
type TemplateCount struct {
	Key   string `json:"key"`
	Label string `json:"name"`
	Count int    `json:"value"`
}

// TemplateCounts counts distinct leads per comment template. A lead with
// several comments on the same template counts once for it. Comments on
// leads outside validLeadIDs are ignored; untagged comments fall under
// "other".
func TemplateCounts(comments []models.Comment, validLeadIDs map[int64]struct{}, templates []models.Template) []TemplateCount {
	texts := make(map[int64]string, len(templates))
	for _, t := range templates {
		texts[t.ID] = t.Text
	}

	leadsByKey := map[string]map[int64]struct{}{}
	labels := map[string]string{}
	for _, c := range comments {
		if _, ok := validLeadIDs[c.LeadID]; !ok {
			continue
		}
		key, label := "other", "Other"
		if c.TemplateID != nil {
			key = strconv.FormatInt(*c.TemplateID, 10)
			switch {
			case texts[*c.TemplateID] != "":
				label = texts[*c.TemplateID]
			case c.Text != "":
				label = c.Text
			default:
				label = "Template " + key
			}
		}
		if _, ok := leadsByKey[key]; !ok {
			leadsByKey[key] = map[int64]struct{}{}
			labels[key] = truncateLabel(label)
		}
		leadsByKey[key][c.LeadID] = struct{}{}
	}

	out := make([]TemplateCount, 0, len(leadsByKey))
	for key, leads := range leadsByKey {
		out = append(out, TemplateCount{Key: key, Label: labels[key], Count: len(leads)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func truncateLabel(label string) string {
	runes := []rune(label)
	if len(runes) <= templateLabelLimit {
		return label
	}
	return string(runes[:templateLabelLimit]) + "..."
}

// Notifiable is a record that can raise a "new" notification.
type Notifiable interface {
	EntityID() int64
	IsNew() bool
}

// UnseenCount counts records in the "new" state whose id is not in readIDs.
func UnseenCount[T Notifiable](records []T, readIDs map[int64]struct{}) int {
	n := 0
	for _, r := range records {
		if !r.IsNew() {
			continue
		}
		if _, read := readIDs[r.EntityID()]; !read {
			n++
		}
	}
	return n
}

// UnseenIDs lists the ids UnseenCount counts, in record order.
func UnseenIDs[T Notifiable](records []T, readIDs map[int64]struct{}) []int64 {
	ids := make([]int64, 0)
	for _, r := range records {
		if !r.IsNew() {
			continue
		}
		if _, read := readIDs[r.EntityID()]; !read {
			ids = append(ids, r.EntityID())
		}
	}
	return ids
}
