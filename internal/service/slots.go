package service

import "time"

type slotSpec struct {
	daysAhead int
	hour      int
}

// Offered slots: tomorrow 10:00, the day after at 14:00, three days out at 11:00.
var slotPolicy = []slotSpec{
	{daysAhead: 1, hour: 10},
	{daysAhead: 2, hour: 14},
	{daysAhead: 3, hour: 11},
}

type SlotRecommender struct {
	loc *time.Location
	now func() time.Time
}

func NewSlotRecommender(loc *time.Location) *SlotRecommender {
	if loc == nil {
		loc = time.Local
	}
	return &SlotRecommender{loc: loc, now: time.Now}
}

// Recommend returns three increasing epoch-millisecond start times. The job
// is accepted for future recruiter-calendar lookups and is not consulted yet.
func (s *SlotRecommender) Recommend(jobID string) []int64 {
	now := s.now().In(s.loc)
	slots := make([]int64, 0, len(slotPolicy))
	for _, rule := range slotPolicy {
		day := now.AddDate(0, 0, rule.daysAhead)
		slot := time.Date(day.Year(), day.Month(), day.Day(), rule.hour, 0, 0, 0, s.loc)
		slots = append(slots, slot.UnixMilli())
	}
	return slots
}
