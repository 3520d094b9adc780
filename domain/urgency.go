package domain

// UrgencyTier classifies how close a due date is to a reference date.
type UrgencyTier string

const (
	UrgencyOverdue UrgencyTier = "overdue"
	UrgencyUrgent  UrgencyTier = "urgent"
	UrgencySoon    UrgencyTier = "soon"
	UrgencyLater   UrgencyTier = "later"
)

const (
	urgentWithinDays = 3
	soonWithinDays   = 7
)

// ClassifyUrgency maps the day distance between ref and due onto a tier.
func ClassifyUrgency(due, ref Date) UrgencyTier {
	days := ref.DaysUntil(due)
	switch {
	case days < 0:
		return UrgencyOverdue
	case days <= urgentWithinDays:
		return UrgencyUrgent
	case days <= soonWithinDays:
		return UrgencySoon
	default:
		return UrgencyLater
	}
}
