package service

import (
	"habit_coach_backend/internal/config"
	"habit_coach_backend/internal/progress"
	"sync/atomic"
)

// GateProvider 持有当前生效的解锁规则，配置热更新时整体替换
type GateProvider struct {
	gate  atomic.Pointer[progress.Gate]
	phase atomic.Int64
}

func NewGateProvider(program config.ProgramConfig) (*GateProvider, error) {
	p := &GateProvider{}
	if err := p.Update(program); err != nil {
		return nil, err
	}
	return p, nil
}

func GateConfig(program config.ProgramConfig) (progress.Config, error) {
	loc, err := program.Location()
	if err != nil {
		return progress.Config{}, err
	}
	return progress.Config{
		MaxPhaseDay:       program.MaxPhaseDay,
		ChapterSize:       program.ChapterSize,
		ChapterBoundaries: program.ChapterBoundaries,
		RetryCooldown:     program.RetryCooldown(),
		Location:          loc,
	}, nil
}

func (p *GateProvider) Update(program config.ProgramConfig) error {
	cfg, err := GateConfig(program)
	if err != nil {
		return err
	}
	phase := program.Phase
	if phase < 1 {
		phase = 1
	}
	p.gate.Store(progress.NewGate(cfg))
	p.phase.Store(int64(phase))
	return nil
}

func (p *GateProvider) Gate() *progress.Gate {
	return p.gate.Load()
}

// Phase 当前内容阶段
func (p *GateProvider) Phase() int {
	return int(p.phase.Load())
}
