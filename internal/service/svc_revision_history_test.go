package service

import (
	"testing"

	"github.com/haierkeys/post-revisions-service/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func modes(revs []domain.Revision) []domain.RevisionMode {
	out := make([]domain.RevisionMode, len(revs))
	for i, r := range revs {
		out[i] = r.Mode()
	}
	return out
}

func TestAssemble(t *testing.T) {
	post := &domain.Post{PID: 1, UID: 3, Content: "now", Marker: domain.EditMarker{Edited: 300, EditedBy: 4}}
	topic := &domain.Topic{Title: "t"}

	t.Run("empty history with marker", func(t *testing.T) {
		revs := Assemble(post, topic, &domain.StoredHistory{})
		assert.Equal(t, []domain.RevisionMode{domain.ModeCurrent, domain.ModeUnknown}, modes(revs))
		assert.EqualValues(t, 4, revs[0].Editor())
		assert.EqualValues(t, 300, revs[1].Timestamp())
		assert.EqualValues(t, 4, revs[1].Editor())
	})

	t.Run("never edited", func(t *testing.T) {
		p := *post
		p.Marker = domain.EditMarker{}
		revs := Assemble(&p, nil, nil)
		assert.Equal(t, []domain.RevisionMode{domain.ModeCurrent}, modes(revs))
		assert.EqualValues(t, 3, revs[0].Editor())
		assert.Equal(t, "", revs[0].(*domain.CurrentRevision).TopicTitle)
	})

	t.Run("oldest entry edited before tracking", func(t *testing.T) {
		h := &domain.StoredHistory{Entries: []*domain.EditRevision{
			{Ts: 300, Content: "b", Marker: domain.EditMarker{Edited: 200}},
			{Ts: 200, Content: "a", Marker: domain.EditMarker{Edited: 50, EditedBy: 7}},
		}}
		revs := Assemble(post, topic, h)
		assert.Equal(t, []domain.RevisionMode{domain.ModeCurrent, domain.ModeEdit, domain.ModeEdit, domain.ModeUnknown}, modes(revs))
		assert.EqualValues(t, 50, revs[3].Timestamp())
		assert.EqualValues(t, 7, revs[3].Editor())
	})

	t.Run("head override applies only while live marker matches", func(t *testing.T) {
		h := &domain.StoredHistory{Head: &domain.MarkerOverride{LiveEdited: 300}}
		assert.Len(t, Assemble(post, topic, h), 1)

		h.Head.LiveEdited = 299
		assert.Len(t, Assemble(post, topic, h), 2)
	})
}

func TestAssemble_OrderingProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("current first, edits strictly newest first, unknown last", prop.ForAll(
		func(stamps []int64, oldestEdited int64) bool {
			seen := map[int64]bool{}
			var entries []*domain.EditRevision
			for _, ts := range stamps {
				if seen[ts] {
					continue
				}
				seen[ts] = true
				entries = append(entries, &domain.EditRevision{Ts: ts})
			}
			// repository contract: newest first
			for i := 1; i < len(entries); i++ {
				for j := i; j > 0 && entries[j].Ts > entries[j-1].Ts; j-- {
					entries[j], entries[j-1] = entries[j-1], entries[j]
				}
			}
			if n := len(entries); n > 0 {
				entries[n-1].Marker.Edited = oldestEdited
			}

			post := &domain.Post{Marker: domain.EditMarker{Edited: oldestEdited}}
			revs := Assemble(post, nil, &domain.StoredHistory{Entries: entries})

			if revs[0].Mode() != domain.ModeCurrent {
				return false
			}
			for i, r := range revs[1:] {
				switch r.Mode() {
				case domain.ModeEdit:
					if i > 0 && revs[i].Mode() == domain.ModeEdit && revs[i].Timestamp() <= r.Timestamp() {
						return false
					}
				case domain.ModeUnknown:
					if i+2 != len(revs) {
						return false
					}
				default:
					return false
				}
			}
			unknown := revs[len(revs)-1].Mode() == domain.ModeUnknown
			return unknown == (oldestEdited > 0)
		},
		gen.SliceOf(gen.Int64Range(1, 1_000_000)),
		gen.Int64Range(0, 50),
	))

	properties.TestingRun(t)
}
