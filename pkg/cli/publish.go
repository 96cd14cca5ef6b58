package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/getmockd/schemagen/pkg/generator"
	"github.com/getmockd/schemagen/pkg/sink"
)

var (
	publishBroker    string
	publishTopic     string
	publishClientID  string
	publishUsername  string
	publishPassword  string
	publishQoS       int
	publishRate      float64
	publishCount     int
	publishSeed      uint64
	publishPath      string
	publishComponent string
	publishDryRun    bool
)

var publishCmd = &cobra.Command{
	Use:   "publish <schema-file>",
	Short: "Publish generated records to an MQTT topic",
	Long: `Generate records from a schema and publish each one as a JSON message.

Without --count records are published until interrupted. --rate paces
publishing in records per second. --dry-run writes the records to stdout as
NDJSON instead of connecting to a broker.`,
	Example: `  # 100 records, 5 per second
  schemagen publish user.json --topic users --count 100 --rate 5

  # Authenticated broker, QoS 0
  schemagen publish user.json --broker tcp://mq:1883 --username svc --password "$PW" --qos 0

  # Preview
  schemagen publish user.json --count 3 --seed 1 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := readSchema(args[0], cmd.InOrStdin(), selection{path: publishPath, component: publishComponent})
		if err != nil {
			return err
		}

		opts := []generator.Option{generator.WithLogger(logger)}
		if cfg.Generate.UniqueAttempts != 0 {
			opts = append(opts, generator.WithMaxUniqueAttempts(cfg.Generate.UniqueAttempts))
		}
		if cmd.Flags().Changed("seed") {
			opts = append(opts, generator.WithSeed(publishSeed))
		}
		gen := generator.New(opts...)

		mc := cfg.MQTT
		var dst sink.Sink
		if publishDryRun {
			// Keep Close from closing stdout.
			dst = sink.NewWriterSink(struct{ io.Writer }{cmd.OutOrStdout()})
		} else {
			dst, err = sink.NewMQTTPublisher(sink.MQTTConfig{
				Broker:   mc.Broker,
				Topic:    mc.Topic,
				ClientID: mc.ClientID,
				Username: mc.Username,
				Password: mc.Password,
				QoS:      byte(mc.QoS),
			}, logger)
			if err != nil {
				return err
			}
		}
		defer dst.Close()

		sent, err := sink.Pump(cmd.Context(), dst, func() (any, error) {
			return gen.Generate(in.node)
		}, sink.PumpOptions{Count: publishCount, Rate: mc.Rate})
		logger.Info("published records", "topic", mc.Topic, "count", sent, "dry_run", publishDryRun)
		return err
	},
}

func init() {
	defaults := cfg.MQTT
	f := publishCmd.Flags()
	f.StringVar(&publishBroker, "broker", defaults.Broker, "MQTT broker URL")
	f.StringVar(&publishTopic, "topic", defaults.Topic, "Topic to publish to")
	f.StringVar(&publishClientID, "client-id", "", "MQTT client ID (default: random)")
	f.StringVar(&publishUsername, "username", "", "MQTT username")
	f.StringVar(&publishPassword, "password", "", "MQTT password")
	f.IntVar(&publishQoS, "qos", defaults.QoS, "MQTT QoS level: 0, 1 or 2")
	f.Float64Var(&publishRate, "rate", 0, "Records per second (0 publishes as fast as possible)")
	f.IntVarP(&publishCount, "count", "n", 0, "Number of records (0 publishes until interrupted)")
	f.Uint64Var(&publishSeed, "seed", 0, "Seed for reproducible output")
	f.StringVar(&publishPath, "path", "", "JSONPath of the schema inside the document")
	f.StringVar(&publishComponent, "openapi-component", "", "Use this components.schemas entry of an OpenAPI document")
	f.BoolVar(&publishDryRun, "dry-run", false, "Write records to stdout instead of publishing")
	publishCmd.MarkFlagsMutuallyExclusive("path", "openapi-component")

	bindConfig(publishCmd, map[string]string{
		"broker":    "mqtt.broker",
		"topic":     "mqtt.topic",
		"client-id": "mqtt.client-id",
		"username":  "mqtt.username",
		"password":  "mqtt.password",
		"qos":       "mqtt.qos",
		"rate":      "mqtt.rate",
	})
	rootCmd.AddCommand(publishCmd)
}
