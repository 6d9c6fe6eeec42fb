package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"github.com/y-sonoda/quill/pkg/adapter"
	"github.com/y-sonoda/quill/pkg/interfaces"
	"github.com/y-sonoda/quill/pkg/repository"
	"github.com/y-sonoda/quill/pkg/service/guardrail"
	"github.com/y-sonoda/quill/pkg/service/llm"
	"github.com/y-sonoda/quill/pkg/service/telemetry"
	"github.com/y-sonoda/quill/pkg/utils/logging"
	"gopkg.in/yaml.v3"
)

// config holds configuration values
type config struct {
	// Optional YAML config file
	configPath string

	// Record store
	project  string
	database string

	// Providers
	openaiAPIKey   string
	openaiModel    string
	bedrockModel   string
	awsRegion      string
	geminiProject  string
	geminiLocation string
	geminiModel    string

	// Guardrails and telemetry
	redactPII        bool
	enableCloudWatch bool
	logGroup         string
	logStream        string
}

// fileConfig mirrors the YAML config file layout. File values fill in
// fields that flags and environment left empty.
type fileConfig struct {
	Project  string `yaml:"project"`
	Database string `yaml:"database"`

	OpenAIModel    string `yaml:"openai_model"`
	BedrockModel   string `yaml:"bedrock_model"`
	AWSRegion      string `yaml:"aws_region"`
	GeminiProject  string `yaml:"gemini_project"`
	GeminiLocation string `yaml:"gemini_location"`
	GeminiModel    string `yaml:"gemini_model"`

	LogGroup  string `yaml:"log_group"`
	LogStream string `yaml:"log_stream"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("QUILL_CONFIG"),
			Destination: &cfg.configPath,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID for the record store",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.BoolFlag{
			Name:        "redact-pii",
			Usage:       "Mask emails/URLs in model output",
			Value:       true,
			Sources:     cli.EnvVars("LLM_REDACT_PII"),
			Destination: &cfg.redactPII,
		},
		&cli.BoolFlag{
			Name:        "enable-cloudwatch",
			Usage:       "Emit inference telemetry to CloudWatch Logs",
			Sources:     cli.EnvVars("LLM_ENABLE_CLOUDWATCH"),
			Destination: &cfg.enableCloudWatch,
		},
		&cli.StringFlag{
			Name:        "log-group",
			Usage:       "CloudWatch log group for telemetry",
			Sources:     cli.EnvVars("CLOUDWATCH_LOG_GROUP"),
			Destination: &cfg.logGroup,
		},
		&cli.StringFlag{
			Name:        "log-stream",
			Usage:       "CloudWatch log stream for telemetry",
			Sources:     cli.EnvVars("CLOUDWATCH_LOG_STREAM"),
			Destination: &cfg.logStream,
		},
	}
}

// llmFlags returns flags for provider configuration with destination config
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "openai-api-key",
			Usage:       "OpenAI API key",
			Sources:     cli.EnvVars("OPENAI_API_KEY"),
			Destination: &cfg.openaiAPIKey,
		},
		&cli.StringFlag{
			Name:        "openai-model",
			Usage:       "OpenAI model override",
			Sources:     cli.EnvVars("OPENAI_MODEL"),
			Destination: &cfg.openaiModel,
		},
		&cli.StringFlag{
			Name:        "bedrock-model",
			Usage:       "Bedrock model ID override",
			Sources:     cli.EnvVars("BEDROCK_MODEL_ID"),
			Destination: &cfg.bedrockModel,
		},
		&cli.StringFlag{
			Name:        "aws-region",
			Usage:       "AWS region for Bedrock and CloudWatch",
			Value:       "us-east-1",
			Sources:     cli.EnvVars("AWS_REGION"),
			Destination: &cfg.awsRegion,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model override",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// loadFile merges the YAML config file (when configured) into fields
// that are still empty
func (cfg *config) loadFile() error {
	if cfg.configPath == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.configPath)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("path", cfg.configPath))
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("path", cfg.configPath))
	}

	setIfEmpty(&cfg.project, file.Project)
	setIfEmpty(&cfg.database, file.Database)
	setIfEmpty(&cfg.openaiModel, file.OpenAIModel)
	setIfEmpty(&cfg.bedrockModel, file.BedrockModel)
	setIfEmpty(&cfg.awsRegion, file.AWSRegion)
	setIfEmpty(&cfg.geminiProject, file.GeminiProject)
	setIfEmpty(&cfg.geminiLocation, file.GeminiLocation)
	setIfEmpty(&cfg.geminiModel, file.GeminiModel)
	setIfEmpty(&cfg.logGroup, file.LogGroup)
	setIfEmpty(&cfg.logStream, file.LogStream)
	return nil
}

func setIfEmpty(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}

// newRecordStore creates the record store: Firestore when a project is
// configured, otherwise an empty in-memory store
func (cfg *config) newRecordStore(ctx context.Context) (interfaces.RecordStore, error) {
	if cfg.project == "" {
		logging.From(ctx).Warn("no record-store project configured, using empty in-memory store")
		return repository.NewMemory(), nil
	}

	store, err := repository.NewFirestore(ctx, cfg.project, cfg.database)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create record store")
	}
	return store, nil
}

// newProviders builds the provider registry. Providers with missing
// credentials stay registered; they report a configuration error on use.
func (cfg *config) newProviders(ctx context.Context) map[string]llm.Provider {
	logger := logging.From(ctx)

	var openaiClient adapter.OpenAI
	if cfg.openaiAPIKey != "" {
		openaiClient = adapter.NewOpenAI(cfg.openaiAPIKey)
	}

	var bedrockClient adapter.Bedrock
	if client, err := adapter.NewBedrock(ctx, cfg.awsRegion); err != nil {
		logger.Warn("bedrock client unavailable", "error", err)
	} else {
		bedrockClient = client
	}

	var geminiClient adapter.Gemini
	if cfg.geminiProject != "" {
		var opts []adapter.GeminiOption
		if cfg.geminiModel != "" {
			opts = append(opts, adapter.WithGenerativeModel(cfg.geminiModel))
		}
		client, err := adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)
		if err != nil {
			logger.Warn("gemini client unavailable", "error", err)
		} else {
			geminiClient = client
		}
	}

	return map[string]llm.Provider{
		"openai":  llm.NewOpenAIProvider(openaiClient, cfg.openaiModel),
		"bedrock": llm.NewBedrockProvider(bedrockClient, cfg.bedrockModel),
		"gemini":  llm.NewGeminiProvider(geminiClient, cfg.geminiModel),
	}
}

// newTelemetrySink creates the telemetry sink; disabled or unavailable
// telemetry degrades to a discard sink
func (cfg *config) newTelemetrySink(ctx context.Context) telemetry.Sink {
	if !cfg.enableCloudWatch {
		return telemetry.NewNop()
	}

	client, err := adapter.NewCloudWatchLogs(ctx, cfg.awsRegion)
	if err != nil {
		logging.From(ctx).Warn("cloudwatch telemetry unavailable", "error", err)
		return telemetry.NewNop()
	}

	return telemetry.NewCloudWatch(client,
		telemetry.WithLogGroup(cfg.logGroup),
		telemetry.WithLogStream(cfg.logStream),
	)
}

// newService wires the full orchestration service from this config
func (cfg *config) newService(ctx context.Context) (*llm.Service, error) {
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}

	store, err := cfg.newRecordStore(ctx)
	if err != nil {
		return nil, err
	}

	svc, err := llm.New(llm.NewInput{
		Providers: cfg.newProviders(ctx),
		Store:     store,
		Guardrail: guardrail.New(guardrail.WithRedaction(cfg.redactPII)),
		Telemetry: cfg.newTelemetrySink(ctx),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create llm service")
	}
	return svc, nil
}
