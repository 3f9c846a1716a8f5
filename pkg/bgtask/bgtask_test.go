package bgtask

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/schema"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	r "github.com/stretchr/testify/require"
)

func mockJournal(failures map[string]int) *engine.Journal {
	logger, _ := test.NewNullLogger()
	j := engine.NewJournal(logger)
	for rule, n := range failures {
		for i := 0; i < n; i++ {
			j.Record("point", &engine.RuleError{
				Rule:  rule,
				Stage: schema.StageInit,
				Step:  "write",
				Err:   errors.New(rule + " failed"),
			})
		}
	}
	return j
}

func TestSummaryTask(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	m := NewBgTaskManager(mockJournal(map[string]int{"a": 1, "b": 3}))
	r.Len(t, m.bgTasks, 1)
	m.bgTasks[0].(*SummaryTask).Run()

	var infos []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.InfoLevel {
			infos = append(infos, e)
		}
	}
	r.Len(t, infos, 3)
	r.Equal(t, "b", infos[1].Data["rule"])
	r.Equal(t, 3, infos[1].Data["failures"])
	r.Equal(t, "b failed", infos[1].Message)
}

func TestSummaryTask_StartStop(t *testing.T) {
	m := NewBgTaskManager(mockJournal(nil))
	m.StartAll()
	m.StopAll()
}

func TestStatsTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	r.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("TRUNCATE TABLE `t_RuleFailure`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO `t_RuleFailure`").WillReturnResult(sqlmock.NewResult(0, 2))

	m := NewBgTaskManager(mockJournal(map[string]int{"a": 1, "b": 2})).WithStats(sqlx.NewSqlConnFromDB(db))
	r.Len(t, m.bgTasks, 2)
	m.bgTasks[1].(*StatsTask).Run()

	r.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStatsTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	r.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `t_RuleFailure`").WillReturnResult(sqlmock.NewResult(0, 0))
	r.NoError(t, CreateStatsTable(sqlx.NewSqlConnFromDB(db)))
	r.NoError(t, mock.ExpectationsWereMet())
}
