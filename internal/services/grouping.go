package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"mailcenter-service/internal/dates"
	"mailcenter-service/internal/domain"
)

// SkippedItem reports a mail item excluded from a grouping pass, typically
// because its received instant could not be normalized. Batch grouping never
// fails the whole list on one bad record.
type SkippedItem struct {
	MailItemID uuid.UUID
	Err        error
}

// statusPriority fixes the order statuses appear in a "Mixed (…)" display
// status. Unlisted statuses sort after the known ones, alphabetically.
var statusPriority = map[domain.Status]int{
	domain.StatusPickedUp:       0,
	domain.StatusNotified:       1,
	domain.StatusReceived:       2,
	domain.StatusForwarded:      3,
	domain.StatusScannedAndSent: 4,
	domain.StatusAbandoned:      5,
}

const unlistedStatusRank = 100

func statusRank(s domain.Status) int {
	if r, ok := statusPriority[s]; ok {
		return r
	}
	return unlistedStatusRank
}

// GroupByContactDayType collapses mail items into aggregates keyed by
// (contact, calendar day, item type). Output is ordered most recent day
// first, then by contact and type; members within a group are ordered oldest
// first. The input slice is never mutated and the result is independent of
// input order.
func GroupByContactDayType(cal dates.Calendar, items []domain.MailItem) ([]domain.Group, []SkippedItem) {
	buckets, skipped := bucketItems(cal, items, func(it domain.MailItem) string {
		return fmt.Sprintf("%s|%s|%s", it.ContactID, cal.DayOf(it.ReceivedAt), it.Type)
	})

	groups := make([]domain.Group, 0, len(buckets))
	for key, members := range buckets {
		agg := aggregate(members)
		groups = append(groups, domain.Group{
			GroupKey:       key,
			ContactID:      members[0].ContactID,
			Day:            cal.DayOf(members[0].ReceivedAt),
			Type:           members[0].Type,
			Items:          agg.items,
			TotalQuantity:  agg.totalQuantity,
			Statuses:       agg.statuses,
			DisplayStatus:  agg.displayStatus,
			LatestReceived: agg.latest.ReceivedAt,
			HasDescription: agg.hasDescription,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Day != groups[j].Day {
			return groups[i].Day > groups[j].Day
		}
		if groups[i].ContactID != groups[j].ContactID {
			return groups[i].ContactID.String() < groups[j].ContactID.String()
		}
		return groups[i].Type < groups[j].Type
	})
	return groups, skipped
}

// GroupByDayType is the single-contact variant: aggregates keyed by
// (calendar day, item type), most recent day first, members oldest first.
// LatestStatus and LatestDescription come from the member with the greatest
// received instant, not an arbitrary last-appended one.
func GroupByDayType(cal dates.Calendar, items []domain.MailItem) ([]domain.SimpleGroup, []SkippedItem) {
	buckets, skipped := bucketItems(cal, items, func(it domain.MailItem) string {
		return fmt.Sprintf("%s|%s", cal.DayOf(it.ReceivedAt), it.Type)
	})

	groups := make([]domain.SimpleGroup, 0, len(buckets))
	for key, members := range buckets {
		agg := aggregate(members)
		groups = append(groups, domain.SimpleGroup{
			GroupKey:          key,
			Day:               cal.DayOf(members[0].ReceivedAt),
			Type:              members[0].Type,
			Items:             agg.items,
			TotalQuantity:     agg.totalQuantity,
			Statuses:          agg.statuses,
			DisplayStatus:     agg.displayStatus,
			LatestReceived:    agg.latest.ReceivedAt,
			LatestStatus:      agg.latest.Status,
			LatestDescription: agg.latest.Description,
			HasDescription:    agg.hasDescription,
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Day != groups[j].Day {
			return groups[i].Day > groups[j].Day
		}
		return groups[i].Type < groups[j].Type
	})
	return groups, skipped
}

// bucketItems partitions items by key, skipping records whose received
// instant is missing and reporting them per item.
func bucketItems(
	cal dates.Calendar,
	items []domain.MailItem,
	keyOf func(domain.MailItem) string,
) (map[string][]domain.MailItem, []SkippedItem) {
	buckets := make(map[string][]domain.MailItem)
	var skipped []SkippedItem

	for _, it := range items {
		if it.ReceivedAt.IsZero() {
			skipped = append(skipped, SkippedItem{
				MailItemID: it.MailItemID,
				Err: &dates.MalformedInstantError{
					Value: "",
					Err:   errors.New("missing received instant"),
				},
			})
			continue
		}
		key := keyOf(it)
		buckets[key] = append(buckets[key], it)
	}
	return buckets, skipped
}

type groupAggregate struct {
	items          []domain.MailItem
	totalQuantity  int
	statuses       []domain.Status
	displayStatus  string
	latest         domain.MailItem
	hasDescription bool
}

// aggregate derives the group-level values from a bucket in one pure pass.
// Statuses are collected into a set and ordered afterwards, so no partially
// built status list is ever observable.
func aggregate(members []domain.MailItem) groupAggregate {
	agg := groupAggregate{latest: members[0]}

	statusSet := make(map[domain.Status]struct{}, len(members))
	for _, it := range members {
		agg.totalQuantity += it.BillingQuantity()
		statusSet[it.Status] = struct{}{}
		if it.HasDescription() {
			agg.hasDescription = true
		}
		if laterMember(it, agg.latest) {
			agg.latest = it
		}
	}

	agg.statuses = orderedStatuses(statusSet)
	agg.displayStatus = displayStatus(agg.statuses)

	// Members are ordered oldest first inside the group, independent of the
	// newest-first ordering of the groups themselves.
	agg.items = make([]domain.MailItem, len(members))
	copy(agg.items, members)
	sort.Slice(agg.items, func(i, j int) bool {
		a, b := agg.items[i], agg.items[j]
		if !a.ReceivedAt.Equal(b.ReceivedAt) {
			return a.ReceivedAt.Before(b.ReceivedAt)
		}
		return a.MailItemID.String() < b.MailItemID.String()
	})
	return agg
}

// laterMember decides the representative "latest" member. Equal instants are
// broken by mail item id so the result never depends on input order.
func laterMember(candidate, current domain.MailItem) bool {
	if !candidate.ReceivedAt.Equal(current.ReceivedAt) {
		return candidate.ReceivedAt.After(current.ReceivedAt)
	}
	return candidate.MailItemID.String() > current.MailItemID.String()
}

func orderedStatuses(set map[domain.Status]struct{}) []domain.Status {
	statuses := make([]domain.Status, 0, len(set))
	for s := range set {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool {
		ri, rj := statusRank(statuses[i]), statusRank(statuses[j])
		if ri != rj {
			return ri < rj
		}
		return statuses[i] < statuses[j]
	})
	return statuses
}

// displayStatus is the single shared status, or a synthesized
// "Mixed (s1, s2, …)" over the priority-ordered status set.
func displayStatus(statuses []domain.Status) string {
	if len(statuses) == 1 {
		return string(statuses[0])
	}
	joined := ""
	for i, s := range statuses {
		if i > 0 {
			joined += ", "
		}
		joined += string(s)
	}
	return "Mixed (" + joined + ")"
}
