package service

import "github.com/Lupicald/Accesspro/internal/attend/types"

// ScheduleResolver resolves the applicable entry/exit window for a
// person: per-person profile override first, global default otherwise.
// Tolerance is always the global one.
type ScheduleResolver struct {
	def types.Schedule
}

func NewScheduleResolver(def types.Schedule) *ScheduleResolver {
	return &ScheduleResolver{def: def}
}

func (r *ScheduleResolver) Default() types.Schedule { return r.def }

// Resolve returns the schedule for the given profile; nil means no
// configured profile, so the global default applies unchanged.
func (r *ScheduleResolver) Resolve(p *types.Profile) types.Schedule {
	s := r.def
	if p == nil {
		return s
	}
	if p.Entry != nil {
		s.Entry = *p.Entry
	}
	if p.Exit != nil {
		s.Exit = *p.Exit
	}
	return s
}
