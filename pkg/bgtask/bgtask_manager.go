package bgtask

import (
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

// BgTaskManager manages background periodical tasks.
// Includes:
// - Summary of the failing rules
// - Sync t_RuleFailure table, when a database is configured
type BgTaskManager struct {
	bgTasks []BgTask
	journal *engine.Journal
}

type BgTask interface {
	Start()
	Stop()
}

func NewBgTaskManager(journal *engine.Journal) *BgTaskManager {
	m := &BgTaskManager{
		bgTasks: make([]BgTask, 0),
		journal: journal,
	}
	m.addSummaryTask()
	return m
}

// WithStats adds the task mirroring the journal counters into db.
func (m *BgTaskManager) WithStats(db sqlx.SqlConn) *BgTaskManager {
	m.addStatsTask(db)
	return m
}

func (m *BgTaskManager) StartAll() {
	for _, task := range m.bgTasks {
		task.Start()
	}
}

func (m *BgTaskManager) StopAll() {
	for _, task := range m.bgTasks {
		task.Stop()
	}
}
