package db

import (
	"errors"
	"strings"
)

// StageStatus to stan jednego etapu produkcji.
// W bazie trzymamy kod, etykieta jest tylko do wyświetlania.
type StageStatus string

const (
	StatusNone       StageStatus = "none"
	StatusWaiting    StageStatus = "waiting"
	StatusInProgress StageStatus = "in_progress"
	StatusDone       StageStatus = "done"
)

var ErrInvalidStatus = errors.New("nieznany status etapu")

var statusLabels = map[StageStatus]string{
	StatusNone:       "-",
	StatusWaiting:    "Ootel",
	StatusInProgress: "Töös",
	StatusDone:       "Valmis",
}

// Label zwraca etykietę używaną w tabelach i na wykresie.
func (s StageStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func (s StageStatus) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsIdle: etap jeszcze nie ruszył ("-" albo "Ootel").
func (s StageStatus) IsIdle() bool {
	return s == StatusNone || s == StatusWaiting
}

// ParseStageStatus przyjmuje kod albo etykietę (bez względu na wielkość liter).
func ParseStageStatus(v string) (StageStatus, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return StatusNone, nil
	}
	for st, label := range statusLabels {
		if strings.EqualFold(v, string(st)) || strings.EqualFold(v, label) {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

type Stage string

const (
	StageAfterone  Stage = "afterone"
	StageCutting   Stage = "cutting"
	StageLaser     Stage = "laser"
	StageBending   Stage = "bending"
	StageDrilling  Stage = "drilling"
	StageWelding   Stage = "welding"
	StageGrinding  Stage = "grinding"
	StageCoating   Stage = "coating"
	StageDelivered Stage = "delivered"
)

// Stages w kolejności kolumn tabeli.
var Stages = []Stage{
	StageAfterone, StageCutting, StageLaser, StageBending, StageDrilling,
	StageWelding, StageGrinding, StageCoating, StageDelivered,
}

// WorkStages to etapy bez "delivered" (te liczy pulpit).
var WorkStages = Stages[:len(Stages)-1]

func ParseStage(v string) (Stage, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, st := range Stages {
		if string(st) == v {
			return st, true
		}
	}
	return "", false
}

// StagePtr zwraca wskaźnik na pole etapu; nil dla nieznanego etapu.
func (p *Project) StagePtr(st Stage) *StageStatus {
	switch st {
	case StageAfterone:
		return &p.Afterone
	case StageCutting:
		return &p.Cutting
	case StageLaser:
		return &p.Laser
	case StageBending:
		return &p.Bending
	case StageDrilling:
		return &p.Drilling
	case StageWelding:
		return &p.Welding
	case StageGrinding:
		return &p.Grinding
	case StageCoating:
		return &p.Coating
	case StageDelivered:
		return &p.Delivered
	}
	return nil
}

func (p *Project) Stage(st Stage) StageStatus {
	if ptr := p.StagePtr(st); ptr != nil {
		return *ptr
	}
	return ""
}
