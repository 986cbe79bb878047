package model_test

import (
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
)

func attendee(key, first, last string, total, sessions int) *model.AggregatedAttendee {
	a := &model.AggregatedAttendee{
		Key:           key,
		Identifier:    model.Identifier{FirstName: first, LastName: last},
		TotalDuration: total,
	}
	for i := 0; i < sessions; i++ {
		a.Sessions = append(a.Sessions, model.Session{Duration: total / sessions})
	}
	return a
}

func TestRank_SortsAndFormats(t *testing.T) {
	aggregated := []*model.AggregatedAttendee{
		attendee("name:meera_iyer", "meera", "IYER", 45, 1),
		attendee("name:ravi", "RAVI", "", 130, 2),
		attendee("email:j@x.com", "john", "doe", 75, 3),
	}

	got := model.Rank(aggregated, 100)
	gt.Array(t, got).Length(3).Required()

	gt.Value(t, got[0].Rank).Equal(1)
	gt.Value(t, got[0].FullName).Equal("Ravi")
	gt.Value(t, got[0].LastName).Equal("")
	gt.Value(t, got[0].TotalDurationFormatted).Equal("2 hr 10 min")
	gt.Value(t, got[0].SessionCount).Equal(2)

	gt.Value(t, got[1].Rank).Equal(2)
	gt.Value(t, got[1].FullName).Equal("John Doe")

	gt.Value(t, got[2].Rank).Equal(3)
	gt.Value(t, got[2].FullName).Equal("Meera Iyer")
	gt.Value(t, got[2].FirstName).Equal("Meera")
	gt.Value(t, got[2].LastName).Equal("Iyer")
	gt.Value(t, got[2].TotalDurationFormatted).Equal("45 min")
}

func TestRank_TruncatesToMaxRank(t *testing.T) {
	var aggregated []*model.AggregatedAttendee
	for i := 0; i < 150; i++ {
		aggregated = append(aggregated, attendee(fmt.Sprintf("name:p%03d", i), fmt.Sprintf("p%03d", i), "", i+1, 1))
	}

	got := model.Rank(aggregated, 100)
	gt.Array(t, got).Length(100)
	gt.Value(t, got[0].TotalDuration).Equal(150)
	gt.Value(t, got[99].TotalDuration).Equal(51)

	gt.Array(t, model.Rank(aggregated, 0)).Length(model.DefaultMaxRank)
	gt.Array(t, model.Rank(aggregated, 5)).Length(5)
}

func TestRank_DenseAndNonIncreasing(t *testing.T) {
	aggregated := []*model.AggregatedAttendee{
		attendee("name:a", "a", "", 10, 1),
		attendee("name:b", "b", "", 30, 1),
		attendee("name:c", "c", "", 30, 1),
		attendee("name:d", "d", "", 20, 1),
		attendee("name:e", "e", "", 10, 1),
	}

	got := model.Rank(aggregated, 100)
	for i, r := range got {
		gt.Value(t, r.Rank).Equal(i + 1)
		if i > 0 {
			gt.Bool(t, got[i-1].TotalDuration >= r.TotalDuration).True()
		}
	}
}

func TestRank_TieBreakIgnoresInputOrder(t *testing.T) {
	forward := []*model.AggregatedAttendee{
		attendee("name:zoe", "zoe", "", 60, 1),
		attendee("name:amir", "Amir", "", 60, 1),
		attendee("name:meera", "meera", "", 60, 1),
	}
	backward := []*model.AggregatedAttendee{forward[2], forward[1], forward[0]}

	a := model.Rank(forward, 10)
	b := model.Rank(backward, 10)
	gt.Value(t, a).Equal(b)
	gt.Value(t, a[0].FullName).Equal("Amir")
	gt.Value(t, a[1].FullName).Equal("Meera")
	gt.Value(t, a[2].FullName).Equal("Zoe")
}

func TestRank_Empty(t *testing.T) {
	got := model.Rank(nil, 100)
	gt.Array(t, got).Length(0)
}

func TestRerank(t *testing.T) {
	in := []model.RankingEntry{{Rank: 4, FullName: "A"}, {Rank: 9, FullName: "B"}}
	out := model.Rerank(in)
	gt.Value(t, out[0].Rank).Equal(1)
	gt.Value(t, out[1].Rank).Equal(2)
	gt.Value(t, in[0].Rank).Equal(4)
}
