package rules

import (
	"github.com/stleox/tracuni/pkg/engine"
	"github.com/stleox/tracuni/pkg/pipe"
	"github.com/stleox/tracuni/pkg/schema"
)

// Whole hands the complete section to the pipeline.
var Whole = schema.Extract(func(section any) (any, error) { return section, nil })

func arg(name string) schema.Origin {
	return schema.Origin{Section: schema.OriginPointArgs, Getter: schema.Field(name)}
}

// args runs ext over the whole POINT_ARGS map.
func args(ext schema.Func) schema.Origin {
	return schema.Origin{Section: schema.OriginPointArgs, Getter: pipe.AsExtract(ext)}
}

func reuse(name string) schema.Origin {
	return schema.Origin{Section: schema.OriginReuse, Getter: schema.Field(name)}
}

var (
	client = schema.Origin{Section: schema.OriginClient, Getter: Whole}
	stack  = schema.Origin{Section: schema.OriginCallStack, Getter: Whole}
	span   = schema.Origin{Section: schema.OriginSpan, Getter: Whole}
	result = schema.Origin{Section: schema.OriginPointResult, Getter: Whole}

	spanName = schema.Destination{Section: schema.DestSpanName, Name: "name"}
)

func tag(name string) schema.Destination {
	return schema.Destination{Section: schema.DestSpanTags, Name: name}
}

func logs(name string) schema.Destination {
	return schema.Destination{Section: schema.DestLogs, Name: name}
}

func keep(name string) schema.Destination {
	return schema.Destination{Section: schema.DestReuse, Name: name}
}

// Common applies to every point.
var Common = schema.RuleSet{
	{
		Description: "component",
		Stage:       schema.StageInit,
		Destination: tag("component"),
		Pipeline:    schema.Steps(pipe.Const("tracuni")),
	},
	{
		Description: "span kind",
		Stage:       schema.StageInit,
		Destination: tag("span.kind"),
		Origins:     []schema.Origin{client},
		Pipeline:    schema.Steps(pipe.ExtSpanKind, pipe.NilIfEmpty),
	},
	{
		Description: "api kind",
		Stage:       schema.StageInit,
		Destination: tag("api.kind"),
		Origins:     []schema.Origin{client},
		Pipeline:    schema.Steps(pipe.ExtAPIKind, pipe.NilIfEmpty),
	},
	{
		Description: "caller",
		Stage:       schema.StageInit,
		Destination: tag("code.function"),
		Origins:     []schema.Origin{stack},
		Pipeline:    schema.Steps(pipe.ExtTracerPath, pipe.NilIfEmpty),
	},
	{
		Description: "caller position",
		Stage:       schema.StageInit,
		Destination: logs("code.caller"),
		Origins:     []schema.Origin{stack},
		Pipeline:    schema.Steps(pipe.ExtTracerFullPath, pipe.NilIfEmpty),
	},
	{
		Description: "error flag",
		Stage:       schema.StagePost,
		Destination: tag("error"),
		Origins:     []schema.Origin{result},
		Pipeline:    schema.Steps(pipe.IsError, pipe.NilIfEmpty),
	},
	{
		Description: "error message",
		Stage:       schema.StagePost,
		Destination: logs("error.message"),
		Origins:     []schema.Origin{result},
		Pipeline:    schema.Steps(pipe.ErrorMessage, pipe.NilIfEmpty, pipe.Cut),
	},
}

// http::GET (/orders)
func httpName() schema.Rule {
	return schema.Rule{
		Description: "http span name",
		Stage:       schema.StageInit,
		Destination: spanName,
		Origins:     []schema.Origin{arg("method"), args(pipe.ExtURLPath)},
		Pipeline:    schema.Steps(pipe.Each(pipe.Upper), pipe.Prefix("http"), pipe.SepString),
	}
}

func httpCommon() schema.RuleSet {
	return schema.RuleSet{
		httpName(),
		{
			Description: "http method",
			Stage:       schema.StageInit,
			Destination: tag("http.method"),
			Origins:     []schema.Origin{arg("method")},
			Pipeline:    schema.Steps(pipe.Head, pipe.Upper, pipe.NilIfEmpty),
		},
		{
			Description: "http url",
			Stage:       schema.StageInit,
			Destination: tag("http.url"),
			Origins:     []schema.Origin{arg("url")},
			Pipeline:    schema.Steps(pipe.Head, pipe.Str, pipe.NilIfEmpty),
		},
		{
			Description: "http status code",
			Stage:       schema.StagePost,
			Destination: tag("http.status_code"),
			Origins:     []schema.Origin{result},
			Pipeline:    schema.Steps(pipe.ExtStatusCode, pipe.NilIfEmpty),
		},
	}
}

// InHTTP is for inbound HTTP requests.
var InHTTP = append(httpCommon(), schema.RuleSet{
	{
		Description: "request headers",
		Stage:       schema.StageInit,
		Destination: logs("http.request.headers"),
		Origins:     []schema.Origin{args(pipe.ExtOutHeaders)},
		Pipeline:    schema.Steps(pipe.Head, pipe.MaskSecretCatchEssentials, pipe.Dump, pipe.Cut),
	},
	{
		Description: "capture peer",
		Stage:       schema.StageInit,
		Destination: keep("peer"),
		Origins:     []schema.Origin{arg("peer")},
	},
	{
		Description: "peer address",
		Stage:       schema.StagePost,
		Destination: tag("peer.address"),
		Origins:     []schema.Origin{reuse("peer")},
		Pipeline:    schema.Steps(pipe.Head, pipe.Str, pipe.NilIfEmpty),
	},
}...)

// injectHeaders leaves the outgoing headers with the trace ids in REUSE
// "headers", where the calling wrapper picks them up.
func injectHeaders() schema.Rule {
	return schema.Rule{
		Description: "inject trace headers",
		Stage:       schema.StagePre,
		Destination: keep("headers"),
		Origins:     []schema.Origin{args(pipe.ExtOutHeaders), span},
		Pipeline:    schema.Steps(pipe.InjectHeaders),
	}
}

// OutHTTP is for outbound HTTP requests.
var OutHTTP = append(httpCommon(), schema.RuleSet{
	injectHeaders(),
}...)

// OutAMQP is for published messages.
var OutAMQP = schema.RuleSet{
	{
		Description: "amqp span name",
		Stage:       schema.StageInit,
		Destination: spanName,
		Origins:     []schema.Origin{arg("config.exchange"), arg("routing_key")},
		Pipeline:    schema.Steps(pipe.Prefix("amqp"), pipe.SepString),
	},
	{
		Description: "amqp exchange",
		Stage:       schema.StageInit,
		Destination: tag("amqp.exchange"),
		Origins:     []schema.Origin{arg("config.exchange")},
	},
	{
		Description: "amqp routing key",
		Stage:       schema.StageInit,
		Destination: tag("amqp.routing_key"),
		Origins:     []schema.Origin{arg("routing_key")},
	},
	{
		Description: "capture body",
		Stage:       schema.StageInit,
		Destination: keep("body"),
		Origins:     []schema.Origin{arg("body")},
		Pipeline:    schema.Steps(pipe.Head, pipe.Dump),
	},
	injectHeaders(),
	{
		Description: "amqp body",
		Stage:       schema.StagePost,
		Destination: logs("amqp.body"),
		Origins:     []schema.Origin{reuse("body")},
		Pipeline:    schema.Steps(pipe.Head, pipe.MaskSecretCatchEssentials, pipe.Cut),
	},
}

// OutDB is for SQL statements.
var OutDB = schema.RuleSet{
	{
		Description: "db span name",
		Stage:       schema.StageInit,
		Destination: spanName,
		Origins:     []schema.Origin{args(pipe.ExtSQLVerb), args(pipe.ExtSQLTable)},
		Pipeline:    schema.Steps(pipe.Prefix("db"), pipe.SepString),
	},
	{
		Description: "db statement",
		Stage:       schema.StageInit,
		Destination: tag("db.statement"),
		Origins:     []schema.Origin{arg("query")},
		Pipeline:    schema.Steps(pipe.Head, pipe.Cut),
	},
	{
		Description: "db args",
		Stage:       schema.StageInit,
		Destination: tag("db.args.count"),
		Origins:     []schema.Origin{args(pipe.ExtSQLArgs)},
		Pipeline: []schema.PipeStep{
			schema.Transform(pipe.Head),
			schema.Transform(pipe.MaskSecretCatchEssentials),
			schema.Tee(keep("args")),
			schema.Transform(pipe.Len),
		},
	},
	{
		Description: "db args log",
		Stage:       schema.StagePost,
		Destination: logs("db.args"),
		Origins:     []schema.Origin{reuse("args")},
		Pipeline:    schema.Steps(pipe.Head, pipe.Dump, pipe.Cut),
	},
	{
		Description: "db response",
		Stage:       schema.StagePost,
		Destination: logs("db.response"),
		Origins:     []schema.Origin{result},
		Pipeline:    schema.Steps(pipe.ExtSQLResponse, pipe.Dump, pipe.Cut),
	},
}

var (
	VariantAll     = schema.NewVariant(schema.SideAll, schema.APIAll)
	VariantInHTTP  = schema.NewVariant(schema.SideIn, schema.APIHTTP)
	VariantOutHTTP = schema.NewVariant(schema.SideOut, schema.APIHTTP)
	VariantOutAMQP = schema.NewVariant(schema.SideOut, schema.APIAMQP)
	VariantOutDB   = schema.NewVariant(schema.SideOut, schema.APIDB)
)

// Builtin returns the built-in rule sets by variant.
func Builtin() map[schema.Variant]schema.RuleSet {
	return map[schema.Variant]schema.RuleSet{
		VariantAll:     Common,
		VariantInHTTP:  InHTTP,
		VariantOutHTTP: OutHTTP,
		VariantOutAMQP: OutAMQP,
		VariantOutDB:   OutDB,
	}
}

// RegisterBuiltin adds the built-in rule sets to reg, most specific first.
func RegisterBuiltin(reg *engine.Registry) error {
	for _, v := range []schema.Variant{VariantInHTTP, VariantOutHTTP, VariantOutAMQP, VariantOutDB, VariantAll} {
		if err := reg.Register(v, Builtin()[v]); err != nil {
			return err
		}
	}
	return nil
}

// Default returns a sealed registry holding the built-in rule sets.
func Default(opts ...engine.RegistryOption) *engine.Registry {
	reg := engine.NewRegistry(opts...)
	if err := RegisterBuiltin(reg); err != nil {
		// 内置规则在测试中校验
		panic(err)
	}
	return reg.Seal()
}
