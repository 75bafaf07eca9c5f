// Package wall keeps the status-partitioned view of the message wall in sync
// with the store.
package wall

import (
	"fmt"
	"slices"

	"messagewall/internal/models"
)

// Partitions holds the three visible collections, newest first. Slices are
// never modified in place, so a Partitions value can be shared freely.
type Partitions struct {
	Approved []models.Message `json:"approved"`
	Pending  []models.Message `json:"pending"`
	Archived []models.Message `json:"archived"`
}

// slot returns the collection for status, or nil for statuses without one.
func (p *Partitions) slot(status models.Status) *[]models.Message {
	switch status {
	case models.StatusApproved:
		return &p.Approved
	case models.StatusPending:
		return &p.Pending
	case models.StatusArchived:
		return &p.Archived
	}
	return nil
}

func (p *Partitions) all() []*[]models.Message {
	return []*[]models.Message{&p.Approved, &p.Pending, &p.Archived}
}

func (p Partitions) clone() Partitions {
	return Partitions{
		Approved: slices.Clone(p.Approved),
		Pending:  slices.Clone(p.Pending),
		Archived: slices.Clone(p.Archived),
	}
}

// Contains reports which partitions hold id.
func (p Partitions) Contains(id string) []models.Status {
	var found []models.Status
	for _, status := range []models.Status{models.StatusApproved, models.StatusPending, models.StatusArchived} {
		if slices.ContainsFunc(*p.slot(status), func(m models.Message) bool { return m.ID == id }) {
			found = append(found, status)
		}
	}
	return found
}

func prepend(list []models.Message, msg models.Message) []models.Message {
	out := make([]models.Message, 0, len(list)+1)
	out = append(out, msg)
	return append(out, list...)
}

func without(list []models.Message, id string) []models.Message {
	idx := slices.IndexFunc(list, func(m models.Message) bool { return m.ID == id })
	if idx < 0 {
		return list
	}
	out := make([]models.Message, 0, len(list)-1)
	out = append(out, list[:idx]...)
	for _, m := range list[idx+1:] {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

// Synchronizer patches partitions from change events without reloading.
// It is not safe for concurrent use; the board serializes access.
type Synchronizer struct {
	parts Partitions
}

func NewSynchronizer(parts Partitions) *Synchronizer {
	return &Synchronizer{parts: parts}
}

func (s *Synchronizer) Partitions() Partitions {
	return s.parts
}

func (s *Synchronizer) Reset(parts Partitions) {
	s.parts = parts
}

// Apply patches the partitions with one live event.
//
// INSERT prepends to the partition of the new status. UPDATE drops the row
// from the partition of its previous status (from every partition when the
// previous row is unknown) and from the target partition, then prepends it.
// DELETE drops the row everywhere. Rows whose status has no partition are
// only removed.
func (s *Synchronizer) Apply(event models.ChangeEvent) error {
	return s.apply(event, false)
}

// Replay is Apply for events buffered while a full load was running: the
// loaded rows may already reflect the event, so the id is removed from every
// partition before it is placed.
func (s *Synchronizer) Replay(event models.ChangeEvent) error {
	return s.apply(event, true)
}

func (s *Synchronizer) apply(event models.ChangeEvent, dedup bool) error {
	if event.Table != models.TableMessages {
		return nil
	}

	switch event.Event {
	case models.EventInsert:
		msg, err := event.NewMessage()
		if err != nil {
			return err
		}
		if dedup {
			s.removeEverywhere(msg.ID)
		}
		s.place(*msg)

	case models.EventUpdate:
		msg, err := event.NewMessage()
		if err != nil {
			return err
		}
		old, err := event.OldMessage()
		if dedup || err != nil || s.parts.slot(old.Status) == nil {
			s.removeEverywhere(msg.ID)
		} else {
			s.remove(old.Status, msg.ID)
		}
		s.remove(msg.Status, msg.ID)
		s.place(*msg)

	case models.EventDelete:
		msg, err := event.OldMessage()
		if err != nil {
			return err
		}
		s.removeEverywhere(msg.ID)

	default:
		return fmt.Errorf("событие %s не применяется к разделам", event.Event)
	}

	return nil
}

func (s *Synchronizer) place(msg models.Message) {
	if slot := s.parts.slot(msg.Status); slot != nil {
		*slot = prepend(*slot, msg)
	}
}

func (s *Synchronizer) remove(status models.Status, id string) {
	if slot := s.parts.slot(status); slot != nil {
		*slot = without(*slot, id)
	}
}

func (s *Synchronizer) removeEverywhere(id string) {
	for _, slot := range s.parts.all() {
		*slot = without(*slot, id)
	}
}
