package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/ardanlabs/conf"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/brianorwhatever/sign-and-verify/config"
	"github.com/brianorwhatever/sign-and-verify/pkg/service/credential"
	"github.com/brianorwhatever/sign-and-verify/pkg/service/issuance"
	"github.com/brianorwhatever/sign-and-verify/pkg/storage"
)

const usage = `usage: issuer <command> [flags]

commands:
  issue   issue a credential for an ID token
  seed    load fixture records into the configured key/value record store
  config  print the resolved configuration`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, config.ErrUsageShown) {
			return
		}
		logrus.Fatalf("main: error: %s", err.Error())
	}
}

func run(args []string, out io.Writer) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "loading .env")
	}
	if len(args) == 0 {
		fmt.Fprintln(out, usage)
		return config.ErrUsageShown
	}

	configPath := config.DefaultConfigPath
	if envConfigPath, present := os.LookupEnv(config.ConfigPath); present {
		logrus.Infof("loading config from env var path: %s", envConfigPath)
		configPath = envConfigPath
	}
	svcCfg, err := config.LoadServiceConfig(configPath, nil)
	if err != nil {
		return errors.Wrap(err, "could not instantiate config")
	}

	if logFile := configureLogger(svcCfg.Server.LogLevel, svcCfg.Server.LogLocation); logFile != nil {
		defer func(logFile *os.File) {
			if err := logFile.Close(); err != nil {
				logrus.WithError(err).Error("failed to close log file")
			}
		}(logFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if svcCfg.Server.JaegerHost != "" {
		tp, err := newTracerProvider(svcCfg)
		if err != nil {
			logrus.WithError(err).Error("could not instantiate tracer provider")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logrus.Errorf("main: failed to shutdown tracer: %s", err)
				}
			}()
		}
	}

	command, cmdArgs := args[0], args[1:]
	switch command {
	case "issue":
		return issue(ctx, out, svcCfg, cmdArgs)
	case "seed":
		return seed(ctx, svcCfg, cmdArgs)
	case "config":
		return printConfig(out, svcCfg)
	default:
		fmt.Fprintln(out, usage)
		return errors.Errorf("unknown command<%s>", command)
	}
}

type issueArgs struct {
	Issuer string `conf:"help:DID of the issuing organization"`
	Holder string `conf:"help:DID of the credential holder"`
	Token  string `conf:"noprint,help:OpenID Connect ID token carrying the holder email"`
}

func issue(ctx context.Context, out io.Writer, svcCfg *config.ServiceConfig, args []string) error {
	var a issueArgs
	if err := parseArgs(args, "ISSUE", &a); err != nil {
		return err
	}

	cfg, err := config.GetConfig()
	if err != nil {
		return errors.Wrap(err, "reading environment")
	}

	store, err := credential.NewRecordStore(ctx, svcCfg.Records)
	if err != nil {
		return errors.Wrap(err, "creating record store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logrus.WithError(err).Error("failed to close record store")
		}
	}()

	svc, err := issuance.NewIssuanceService(store, newRenderer(svcCfg.Issuance), svcCfg.Issuance.CredentialType)
	if err != nil {
		return errors.Wrap(err, "creating issuance service")
	}
	logrus.WithField("status", svc.Status()).Infof("%s service created", svc.Type())
	cfg = cfg.WithCredentialRequestHandler(svc.Issue)

	doc, err := cfg.CredentialRequestHandler(ctx, a.Issuer, a.Holder, a.Token)
	if err != nil {
		return errors.Wrapf(err, "issuing %s credential (%s)", svc.CredentialType(), issuance.KindOf(err))
	}
	if len(doc) == 0 {
		logrus.Warn("no credential available for the token holder")
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshalling credential")
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}

func newRenderer(cfg config.IssuanceConfig) *issuance.Renderer {
	if cfg.TemplateDir == "" {
		return issuance.NewRenderer(issuance.DefaultTemplates())
	}
	logrus.Infof("loading credential templates from %s", cfg.TemplateDir)
	return issuance.NewRenderer(os.DirFS(cfg.TemplateDir))
}

type seedArgs struct {
	File    string `conf:"help:TOML fixture file with one [[records]] table per record"`
	Replace bool   `conf:"help:delete stored records of each seeded credential type first"`
}

func seed(ctx context.Context, svcCfg *config.ServiceConfig, args []string) error {
	var a seedArgs
	if err := parseArgs(args, "SEED", &a); err != nil {
		return err
	}
	if a.File == "" {
		a.File = svcCfg.Records.FixtureFile
	}
	if a.File == "" {
		return errors.New("no fixture file given")
	}

	t, opts, err := svcCfg.Records.KeyValueOptions()
	if err != nil {
		return err
	}
	db, err := storage.NewStorage(t, opts...)
	if err != nil {
		return errors.Wrap(err, "creating record storage")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Error("failed to close record storage")
		}
	}()
	if err = storage.WaitUntilOpen(db, time.Second, uint64(svcCfg.Records.WaitRetries)); err != nil {
		return err
	}

	records, err := credential.LoadFixtureFile(a.File)
	if err != nil {
		return err
	}
	if a.Replace {
		types := lo.Uniq(lo.Map(records, func(r credential.FixtureRecord, _ int) string {
			return r.CredentialType()
		}))
		for _, credType := range types {
			removed, err := credential.ClearRecords(ctx, db, credType)
			if err != nil {
				return err
			}
			logrus.Infof("removed %d %s records", removed, credType)
		}
	}
	if err = credential.SeedRecords(ctx, db, records); err != nil {
		return err
	}
	logrus.Infof("seeded %d records into %s storage", len(records), db.Type())
	return nil
}

func printConfig(out io.Writer, svcCfg *config.ServiceConfig) error {
	s, err := conf.String(svcCfg)
	if err != nil {
		return errors.Wrap(err, "serializing config")
	}
	fmt.Fprintln(out, s)

	cfg, err := config.GetConfig()
	if err != nil {
		return errors.Wrap(err, "reading environment")
	}
	fmt.Fprintf(out, "--port=%d\n", cfg.Port)
	fmt.Fprintf(out, "--hmac-secret-set=%t\n", cfg.HasHMACSecret())
	fmt.Fprintf(out, "--hmac-required-headers=%v\n", cfg.HMACRequiredHeaders)
	fmt.Fprintf(out, "--digest-check=%t\n", cfg.DigestCheck)
	fmt.Fprintf(out, "--digest-algorithms=%v\n", cfg.DigestAlgorithms)
	fmt.Fprintf(out, "--demo-issuer-method=%s\n", cfg.DemoIssuerMethod)
	fmt.Fprintf(out, "--issuer-membership-registry-url=%s\n", cfg.IssuerMembershipRegistryURL)
	return nil
}

func parseArgs(args []string, namespace string, cfgStruct any) error {
	if err := conf.Parse(args, namespace, cfgStruct); err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			u, err := conf.Usage(namespace, cfgStruct)
			if err != nil {
				return errors.Wrap(err, "generating usage")
			}
			fmt.Println(u)
			return config.ErrUsageShown
		}
		return errors.Wrap(err, "parsing flags")
	}
	return nil
}

// newTracerProvider returns an OpenTelemetry TracerProvider that batches spans to the Jaeger collector
// at cfg.Server.JaegerHost and registers it globally.
func newTracerProvider(cfg *config.ServiceConfig) (*sdktrace.TracerProvider, error) {
	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Server.JaegerHost)))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(config.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version.SVN),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return tp, nil
}

// configureLogger configures the logger to logs to the given location and returns a file pointer to a logs
// file that should be closed on exit. Logs go to stderr so command output on stdout stays clean.
func configureLogger(level, location string) *os.File {
	if level != "" {
		logLevel, err := logrus.ParseLevel(level)
		if err != nil {
			logrus.WithError(err).Errorf("could not parse log level<%s>, setting to info", level)
			logrus.SetLevel(logrus.InfoLevel)
		} else {
			logrus.SetLevel(logLevel)
		}
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetReportCaller(true)

	now := time.Now()
	logrus.SetOutput(os.Stderr)
	if location != "" {
		logFile := filepath.Join(location, config.ServiceName+"-"+now.Format(time.DateOnly)+"-"+strconv.FormatInt(now.Unix(), 10)+".log")
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logrus.WithError(err).Warn("failed to create logs file, using default stderr")
			return nil
		}
		logrus.SetOutput(io.MultiWriter(os.Stderr, file))
		return file
	}
	return nil
}
