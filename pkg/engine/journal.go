package engine

import (
	"sort"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/stleox/tracuni/pkg/config"
	"github.com/zeromicro/go-zero/core/executors"
)

// RuleStat is the failure count of one rule description.
type RuleStat struct {
	Rule      string
	Failures  int
	LastError string
	LastSeen  time.Time
}

type journalEntry struct {
	at    time.Time
	point string
	err   *RuleError
}

// Journal keeps per-rule failure counters and flushes every failure in
// batches to a JSON logger.
type Journal struct {
	executor *executors.PeriodicalExecutor
	tasker   *journalTasker

	muStats sync.Mutex
	stats   *lru.Cache[string, *RuleStat]
}

// NewJournal writes to logger, config.Log4Journal when nil.
func NewJournal(logger *logrus.Logger) *Journal {
	if logger == nil {
		logger = config.Log4Journal
	}
	tasker := &journalTasker{
		logger:  logger,
		entries: make([]journalEntry, 0),
	}
	j := &Journal{
		executor: executors.NewPeriodicalExecutor(config.JournalFlushInterval, tasker),
		tasker:   tasker,
	}
	j.stats, _ = lru.New[string, *RuleStat](config.MaxJournalRules)
	return j
}

// Record counts err and queues it for the journal file. nil receivers and
// errors are ignored.
func (j *Journal) Record(point string, err *RuleError) {
	if j == nil || err == nil {
		return
	}
	now := time.Now()

	j.muStats.Lock()
	stat, ok := j.stats.Get(err.Rule)
	if !ok {
		stat = &RuleStat{Rule: err.Rule}
		j.stats.Add(err.Rule, stat)
	}
	stat.Failures++
	stat.LastError = err.Short()
	stat.LastSeen = now
	j.muStats.Unlock()

	j.executor.Add(journalEntry{at: now, point: point, err: err})
}

// Top returns copies of the n most failing rules, most failures first.
func (j *Journal) Top(n int) []RuleStat {
	if j == nil {
		return nil
	}
	j.muStats.Lock()
	ret := make([]RuleStat, 0, j.stats.Len())
	for _, key := range j.stats.Keys() {
		if stat, ok := j.stats.Peek(key); ok {
			ret = append(ret, *stat)
		}
	}
	j.muStats.Unlock()

	sort.Slice(ret, func(a, b int) bool {
		if ret[a].Failures != ret[b].Failures {
			return ret[a].Failures > ret[b].Failures
		}
		return ret[a].Rule < ret[b].Rule
	})
	if n > 0 && len(ret) > n {
		ret = ret[:n]
	}
	return ret
}

// Flush writes the pending batch now.
func (j *Journal) Flush() {
	if j == nil {
		return
	}
	j.executor.Flush()
}

const journalBatchSize = 128

type journalTasker struct {
	logger  *logrus.Logger
	entries []journalEntry
}

func (t *journalTasker) AddTask(task any) bool {
	t.entries = append(t.entries, task.(journalEntry))
	return len(t.entries) >= journalBatchSize
}

func (t *journalTasker) Execute(tasks any) {
	for _, e := range tasks.([]journalEntry) {
		t.logger.WithFields(logrus.Fields{
			"at":      e.at.Format(time.RFC3339Nano),
			"point":   e.point,
			"rule":    e.err.Rule,
			"variant": e.err.Variant.String(),
			"stage":   e.err.Stage.String(),
			"step":    e.err.Step,
		}).Warn(e.err.Short())
	}
}

func (t *journalTasker) RemoveAll() any {
	entries := t.entries
	t.entries = make([]journalEntry, 0)
	return entries
}
