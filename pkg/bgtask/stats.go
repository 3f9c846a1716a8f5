package bgtask

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const timeFormat = "2006-01-02 15:04:05.000000"

// 通过数据库 t_RuleFailure 小表，对外暴露规则失败统计
func CreateStatsTable(db sqlx.SqlConn) error {
	_, err := db.Exec("CREATE TABLE IF NOT EXISTS `t_RuleFailure` " +
		"(rule VARCHAR(255), " +
		"failures BIGINT, " +
		"last_error VARCHAR(512), " +
		"last_seen DATETIME(6))")
	return err
}

func NewStatsInserter(db sqlx.SqlConn) (*sqlx.BulkInserter, error) {
	return sqlx.NewBulkInserter(db, "INSERT INTO `t_RuleFailure` "+
		"(rule, "+
		"failures, "+
		"last_error, "+
		"last_seen) "+
		"VALUES (?,?,?,?)")
}

// 全量更新，先清表再插入
func insertStats(db sqlx.SqlConn, stats []engine.RuleStat) error {
	inserter, err := NewStatsInserter(db)
	if err != nil {
		return err
	}
	defer inserter.Flush()

	if _, err = db.Exec("TRUNCATE TABLE `t_RuleFailure`"); err != nil {
		return err
	}
	for _, stat := range stats {
		err = inserter.Insert(stat.Rule, stat.Failures, stat.LastError, stat.LastSeen.Format(timeFormat))
		if err != nil {
			return err
		}
	}
	return nil
}

type StatsTask struct {
	m  *BgTaskManager
	db sqlx.SqlConn
	c  *cron.Cron
}

func (m *BgTaskManager) addStatsTask(db sqlx.SqlConn) {
	m.bgTasks = append(m.bgTasks, &StatsTask{
		m:  m,
		db: db,
	})
}

func (t *StatsTask) Run() {
	if err := insertStats(t.db, t.m.journal.Top(config.MaxJournalRules)); err != nil {
		logrus.WithError(err).Error("tracuni couldn't sync t_RuleFailure")
	}
}

func (t *StatsTask) Start() {
	if err := CreateStatsTable(t.db); err != nil {
		logrus.WithError(err).Error("tracuni couldn't create table t_RuleFailure")
		return
	}
	t.c = cron.New()
	_, err := t.c.AddJob(config.SummaryInterval, t)
	if err != nil {
		logrus.WithError(err).Warn("tracuni couldn't add stats task")
		return
	}
	t.c.Start()
}

func (t *StatsTask) Stop() {
	if t.c != nil {
		<-t.c.Stop().Done()
	}
}
