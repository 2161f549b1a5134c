package domain

import (
	"time"

	"github.com/google/uuid"

	"mailcenter-service/internal/dates"
)

// Group is a derived aggregate of mail items sharing contact, calendar day
// and item type. Recomputed on every request, never persisted.
type Group struct {
	GroupKey       string
	ContactID      uuid.UUID
	Day            dates.CalendarDay
	Type           ItemType
	Items          []MailItem
	TotalQuantity  int
	Statuses       []Status
	DisplayStatus  string
	LatestReceived time.Time
	HasDescription bool
}

// SimpleGroup is the single-contact variant: same aggregation minus the
// contact key, plus the status/description of the most recently received
// member.
type SimpleGroup struct {
	GroupKey          string
	Day               dates.CalendarDay
	Type              ItemType
	Items             []MailItem
	TotalQuantity     int
	Statuses          []Status
	DisplayStatus     string
	LatestReceived    time.Time
	LatestStatus      Status
	LatestDescription string
	HasDescription    bool
}
