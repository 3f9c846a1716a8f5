package serve

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	pkgbgtask "github.com/stleox/tracuni/pkg/bgtask"
	"github.com/stleox/tracuni/pkg/cmd/common"
	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/instrument/amqpx"
	"github.com/stleox/tracuni/pkg/instrument/dbx"
	"github.com/stleox/tracuni/pkg/instrument/httpx"
	tr "go.opentelemetry.io/otel/trace"
)

const shutdownTimeout = 5 * time.Second

func New(vp *viper.Viper) *cobra.Command {
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve an instrumented demo API and its metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			// init main context of `serve`
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			// init engine
			reg, _, err := common.NewRegistry(vp)
			if err != nil {
				return err
			}
			promReg := prometheus.NewRegistry()
			promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			eng, err := common.NewEngine(reg, promReg)
			if err != nil {
				return err
			}

			// init exporter
			tp, err := common.InitExporter(ctx, vp, os.Stdout)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
				defer stop()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logrus.Error(err)
				}
			}()

			d := &demo{
				engine: eng,
				tracer: tp.Tracer("tracuni"),
				client: &http.Client{Transport: httpx.NewTransport(nil, eng, tp.Tracer("tracuni"))},
			}

			// init bgTaskManager
			bgTaskManager := pkgbgtask.NewBgTaskManager(eng.Journal())
			if dsn := vp.GetString("db-dsn"); dsn != "" {
				conn, raw := dbx.NewMysql(dsn, eng, d.tracer)
				d.db = conn
				bgTaskManager.WithStats(raw)
			}
			bgTaskManager.StartAll()
			defer bgTaskManager.StopAll()

			if url := vp.GetString("amqp-url"); url != "" {
				ch, closer, err := amqpx.Dial(url)
				if err != nil {
					return err
				}
				defer func() { _ = closer() }()
				d.publisher = amqpx.NewPublisher(ch, eng, d.tracer)
			}

			listen := vp.GetString("listen")
			if listen == "" {
				listen = config.DefaultListen
			}
			srv := &http.Server{
				Addr:              listen,
				Handler:           d.routes(promReg),
				ReadHeaderTimeout: 10 * time.Second,
			}
			go func() {
				<-ctx.Done()
				shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
				defer stop()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logrus.WithField("listen", listen).Info("tracuni is serving")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	flags := serve.Flags()
	flags.String("listen", config.DefaultListen, "Address of the demo API")
	flags.String("db-dsn", "", "MySQL DSN queried by /users")
	flags.String("amqp-url", "", "AMQP URL published to by /publish")
	flags.String("summary-interval", config.SummaryInterval, "Cron spec of the failing rules summary")
	flags.Duration("journal-flush-interval", config.JournalFlushInterval, "Flush interval of the failure journal")
	_ = vp.BindPFlags(flags)
	return serve
}

type demo struct {
	engine    *engine.Engine
	tracer    tr.Tracer
	client    *http.Client
	db        *dbx.Conn
	publisher *amqpx.Publisher
}

func (d *demo) routes(promReg *prometheus.Registry) http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/ping", d.ping)
	api.HandleFunc("/proxy", d.proxy)
	api.HandleFunc("/users", d.users)
	api.HandleFunc("/publish", d.publish)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.Handle("/", httpx.Middleware(d.engine, d.tracer)(api))
	return mux
}

func (d *demo) ping(w http.ResponseWriter, _ *http.Request) {
	_, _ = io.WriteString(w, "pong\n")
}

// proxy fetches ?url= through the traced client.
func (d *demo) proxy(w http.ResponseWriter, req *http.Request) {
	target := req.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url", http.StatusBadRequest)
		return
	}
	out, err := http.NewRequestWithContext(req.Context(), http.MethodGet, target, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := d.client.Do(out)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

type user struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

func (d *demo) users(w http.ResponseWriter, req *http.Request) {
	if d.db == nil {
		http.Error(w, "no database, set --db-dsn", http.StatusServiceUnavailable)
		return
	}
	var users []user
	if err := d.db.QueryRowsCtx(req.Context(), &users, "SELECT id, name FROM users LIMIT 10"); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(users)
}

// publish sends the request body to ?exchange= with ?key=.
func (d *demo) publish(w http.ResponseWriter, req *http.Request) {
	if d.publisher == nil {
		http.Error(w, "no broker, set --amqp-url", http.StatusServiceUnavailable)
		return
	}
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	q := req.URL.Query()
	err = d.publisher.Publish(req.Context(), q.Get("exchange"), q.Get("key"), amqp.Publishing{
		ContentType: req.Header.Get("Content-Type"),
		Body:        body,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
