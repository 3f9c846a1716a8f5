package amqpx

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/pipe"
	"github.com/stleox/tracuni/pkg/schema"
	"github.com/stleox/tracuni/pkg/tracer"
	tr "go.opentelemetry.io/otel/trace"
)

var Variant = schema.NewVariant(schema.SideOut, schema.APIAMQP)

// Channel is the part of *amqp.Channel the publisher needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher traces every published message. Trace headers computed by the
// rules are added to the message headers.
type Publisher struct {
	ch     Channel
	engine *engine.Engine
	tracer tr.Tracer
}

func NewPublisher(ch Channel, eng *engine.Engine, t tr.Tracer) *Publisher {
	return &Publisher{ch: ch, engine: eng, tracer: t}
}

func (p *Publisher) Publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	return p.PublishWithOptions(ctx, exchange, key, false, false, msg)
}

func (p *Publisher) PublishWithOptions(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	ctx, span := tracer.Start(ctx, p.tracer, config.NameUnknown, tr.WithSpanKind(tr.SpanKindProducer))
	defer span.End()

	pt := p.engine.NewPoint(Variant, span, map[string]any{
		"config": map[string]any{
			"exchange":  exchange,
			"mandatory": mandatory,
			"immediate": immediate,
		},
		"routing_key":  key,
		"body":         msg.Body,
		"headers":      msg.Headers,
		"content_type": msg.ContentType,
	}, engine.WithRef("amqp.Publish"), engine.WithAdapter(p.ch))
	pt.Init()
	pt.Pre()

	if headers, ok := pt.Context().Reuse["headers"].(map[string]string); ok {
		tracing := pipe.TracingHeaders(headers)
		table := make(amqp.Table, len(msg.Headers)+len(tracing))
		for k, v := range msg.Headers {
			table[k] = v
		}
		// 只写入追踪头，业务头保持原类型
		for k, v := range tracing {
			table[k] = v
		}
		msg.Headers = table
	}

	err := p.ch.PublishWithContext(ctx, exchange, key, mandatory, immediate, msg)
	pt.Post(nil, err)
	pt.Finish()
	return err
}

// Dial opens a connection and a channel on url. The connection is closed
// together with the returned closer.
func Dial(url string) (*amqp.Channel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dialing amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("opening amqp channel: %w", err)
	}
	return ch, conn.Close, nil
}
