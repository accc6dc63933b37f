package mrp

import (
	"context"

	"github.com/bartek5186/ulvari-mrp/internal/db"
)

// StageTitles to krótkie podpisy etapów z wykresu na pulpicie.
var StageTitles = map[db.Stage]string{
	db.StageAfterone: "After1",
	db.StageCutting:  "Lõikus",
	db.StageLaser:    "Laser",
	db.StageBending:  "Painutus",
	db.StageDrilling: "Puurim.",
	db.StageWelding:  "Keevitus",
	db.StageGrinding: "Lihv.",
	db.StageCoating:  "Pinnat.",
}

type StageCount struct {
	Stage      db.Stage `json:"stage"`
	Title      string   `json:"title"`
	Waiting    int      `json:"waiting"`
	InProgress int      `json:"in_progress"`
	Done       int      `json:"done"`
}

type Overview struct {
	Total      int          `json:"total"`
	Delivered  int          `json:"delivered"`
	InProgress int          `json:"in_progress"`
	Waiting    int          `json:"waiting"`
	Stages     []StageCount `json:"stages"`
}

// Overview liczy KPI pulpitu. Zlecenie dostarczone (delivered = done) liczy się tylko jako
// dostarczone i na wykresie jako gotowe na każdym etapie. Pozostałe: "w toku", gdy któryś
// etap roboczy jest w toku; "oczekujące", gdy wszystkie są none/waiting; reszta nie wchodzi do KPI.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	projects, err := s.Projects(ctx)
	if err != nil {
		return nil, err
	}
	return summarize(projects), nil
}

func summarize(projects []db.Project) *Overview {
	ov := &Overview{Total: len(projects), Stages: make([]StageCount, len(db.WorkStages))}
	for i, st := range db.WorkStages {
		ov.Stages[i] = StageCount{Stage: st, Title: StageTitles[st]}
	}

	for i := range projects {
		p := &projects[i]
		delivered := p.Delivered == db.StatusDone
		if delivered {
			ov.Delivered++
		}

		anyProgress, allIdle := false, true
		for j, st := range db.WorkStages {
			v := p.Stage(st)
			if delivered {
				v = db.StatusDone
			}
			switch {
			case v == db.StatusDone:
				ov.Stages[j].Done++
			case v == db.StatusInProgress:
				ov.Stages[j].InProgress++
			case v.IsIdle():
				ov.Stages[j].Waiting++
			}
			if v == db.StatusInProgress {
				anyProgress = true
			}
			if !v.IsIdle() {
				allIdle = false
			}
		}
		if delivered {
			continue
		}
		switch {
		case anyProgress:
			ov.InProgress++
		case allIdle:
			ov.Waiting++
		}
	}
	return ov
}
