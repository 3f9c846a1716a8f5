package bgtask

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/stleox/tracuni/pkg/config"
)

type SummaryTask struct {
	m *BgTaskManager
	c *cron.Cron
}

func (m *BgTaskManager) addSummaryTask() {
	m.bgTasks = append(m.bgTasks, &SummaryTask{
		m: m,
	})
}

// Run logs the most failing rules since startup.
func (t *SummaryTask) Run() {
	t.m.journal.Flush()
	top := t.m.journal.Top(config.SummaryTopN)
	if len(top) == 0 {
		logrus.Debug("tracuni found no failing rules")
		return
	}
	logrus.Infof("tracuni found %d failing rules: ", len(top))
	for _, stat := range top {
		logrus.WithFields(logrus.Fields{
			"rule":      stat.Rule,
			"failures":  stat.Failures,
			"last_seen": stat.LastSeen.Format("2006-01-02 15:04:05"),
		}).Info(stat.LastError)
	}
}

func (t *SummaryTask) Start() {
	t.c = cron.New()
	_, err := t.c.AddJob(config.SummaryInterval, t)
	if err != nil {
		logrus.WithError(err).Warn("tracuni couldn't add summary task")
		return
	}
	t.c.Start()
}

func (t *SummaryTask) Stop() {
	if t.c != nil {
		<-t.c.Stop().Done()
	}
}
