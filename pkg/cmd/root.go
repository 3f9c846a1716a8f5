package cmd

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stleox/tracuni/pkg/cmd/explain"
	"github.com/stleox/tracuni/pkg/cmd/serve"
	"github.com/stleox/tracuni/pkg/cmd/simulate"
	"github.com/stleox/tracuni/pkg/cmd/validate"
	"github.com/stleox/tracuni/pkg/config"
	"github.com/stleox/tracuni/pkg/tracer"
)

// NewViper creates a new viper instance configured.
func NewViper() *viper.Viper {
	vp := viper.New()

	// read config from a file
	vp.SetConfigName("config") // name of config file (without extension)
	vp.SetConfigType("yaml")   // useful if the given config file does not have the extension in the name
	vp.AddConfigPath(".")      // look for a config in the working directory first

	// read config from environment variables
	vp.SetEnvPrefix("tracuni") // env var must start with TRACUNI_
	// replace - by _ for environment variable names
	// (eg: the env var for rules-file is TRACUNI_RULES_FILE)
	vp.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vp.AutomaticEnv() // read in environment variables that match
	return vp
}

func New(vp *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:          "tracuni",
		Short:        "Declarative tracing annotations for HTTP, AMQP and DB calls",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := vp.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
					return err
				}
			}
			config.Apply(vp)

			if config.Debug {
				logrus.Info("enabled debug mode")
			} else {
				logrus.Debug("disabled debug mode")
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.Bool("debug", false, "Enable debug mode")
	flags.AddFlagSet(ruleFlags())
	flags.String("exporter", tracer.ExporterDummy, "Span exporter: dummy, stdout or grpc")
	flags.String("otlp-endpoint", "", "OTLP gRPC endpoint, host:port")
	flags.Bool("otlp-insecure", false, "Disable TLS towards the OTLP endpoint")
	flags.Int("max-dump-length", config.MaxDumpLength, "Longest dumped payload before it is cut")
	flags.String("mask-token", config.MaskToken, "Replacement of sensitive values")
	flags.StringSlice("sensitive-fields", config.SensitiveFields, "Field names whose values are masked")
	_ = vp.BindPFlags(flags)

	return root
}

// ruleFlags selects where rule sets come from.
func ruleFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("rules", pflag.ContinueOnError)
	fs.String("rules-file", "", "YAML rule file registered after the built-in rule sets")
	fs.Bool("builtin", true, "Register the built-in rule sets")
	return fs
}

func Execute() {
	// 全局初始化 VP 配置
	vp := NewViper()

	root := New(vp)
	root.AddCommand(
		validate.New(vp),
		explain.New(vp),
		simulate.New(vp),
		serve.New(vp),
	)

	err := root.Execute()
	if err != nil {
		os.Exit(1)
	}
}
