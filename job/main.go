package main

import (
	"codemailer/config"
	"codemailer/dep"
	"codemailer/dispatch"
	"codemailer/job/consume_dispatch_requests"
	"codemailer/job/send_campaign"
	"codemailer/pkg/logutil"
	"codemailer/pkg/mq"
	"codemailer/pkg/secret"
	"codemailer/pkg/service"
	"codemailer/repo"
	"context"
	"errors"
	"fmt"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	ErrKafkaDisabled = errors.New("kafka is not configured")
)

var (
	configPath string
	logLevel   string

	sendParams send_campaign.Params
)

// env holds what every job needs: the loaded config and a ready engine.
type env struct {
	ctx    context.Context
	cfg    *config.Config
	engine *dispatch.Engine

	closers []func(ctx context.Context) error
}

func (e *env) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](e.ctx); err != nil {
			log.Ctx(e.ctx).Error().Msgf("close resource failed, err: %v", err)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:           "job",
	Short:         "Run codemailer background jobs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var sendCampaignCmd = &cobra.Command{
	Use:   "send-campaign",
	Short: "Send a template to every recipient of a json, xlsx or csv file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		return runJob(e.ctx, send_campaign.New(e.engine, sendParams))
	},
}

var consumeDispatchRequestsCmd = &cobra.Command{
	Use:   "consume-dispatch-requests",
	Short: "Start a run for every dispatch request published to kafka",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.close()

		if !e.cfg.Kafka.Enabled() {
			return ErrKafkaDisabled
		}

		return runJob(e.ctx, consume_dispatch_requests.New(e.engine, mq.NewConsumerConfig(e.cfg.Kafka)))
	},
}

func init() {
	defaults := config.NewOptions()

	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaults.ConfigPath, "config file path (env CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (env LOG_LEVEL)")

	sendCampaignCmd.Flags().StringVarP(&sendParams.File, "file", "f", "", "recipient file (.json, .xlsx or .csv)")
	sendCampaignCmd.Flags().Uint64Var(&sendParams.UserID, "user-id", 0, "sending user")
	sendCampaignCmd.Flags().Uint64Var(&sendParams.TemplateID, "template-id", 0, "template to send")
	sendCampaignCmd.Flags().IntVar(&sendParams.ConcurrencyLimit, "concurrency-limit", 0, "recipients per chunk (0 uses the configured limit)")
	sendCampaignCmd.Flags().StringSliceVar(&sendParams.SharedWith, "shared-with", nil, "addresses the sent records are shared with")
	_ = sendCampaignCmd.MarkFlagRequired("file")
	_ = sendCampaignCmd.MarkFlagRequired("user-id")
	_ = sendCampaignCmd.MarkFlagRequired("template-id")

	rootCmd.AddCommand(sendCampaignCmd)
	rootCmd.AddCommand(consumeDispatchRequestsCmd)
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newEnv(ctx context.Context) (*env, error) {
	if v := os.Getenv("LOG_LEVEL"); v != "" && !rootCmd.PersistentFlags().Changed("log-level") {
		logLevel = v
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" && !rootCmd.PersistentFlags().Changed("config") {
		configPath = v
	}

	e := &env{
		ctx: logutil.InitZeroLog(ctx, logLevel),
		cfg: config.NewConfig(),
	}

	if err := e.cfg.Load(e.ctx, configPath); err != nil {
		log.Ctx(e.ctx).Error().Msgf("load config failed: %v", err)
		return nil, err
	}

	if e.cfg.Log.File != "" {
		e.ctx = logutil.InitZeroLogWithFile(e.ctx, logLevel, e.cfg.Log)
	}

	if err := e.initEngine(); err != nil {
		e.close()
		return nil, err
	}

	return e, nil
}

func (e *env) initEngine() error {
	// base repo
	baseRepo, err := repo.NewBaseRepo(e.ctx, e.cfg.MetadataDB)
	if err != nil {
		log.Ctx(e.ctx).Error().Msgf("init base repo failed, err: %v", err)
		return err
	}
	e.closers = append(e.closers, baseRepo.Close)

	baseCache := repo.NewBaseCache(e.ctx)
	e.closers = append(e.closers, baseCache.Close)

	// file repo
	var files dep.FileDownloader
	if e.cfg.GoogleDrive.Enabled() {
		fileRepo, err := repo.NewFileRepo(e.ctx, e.cfg.GoogleDrive)
		if err != nil {
			log.Ctx(e.ctx).Error().Msgf("init file repo failed, err: %v", err)
			return err
		}
		e.closers = append(e.closers, fileRepo.Close)
		files = fileRepo
	}

	cipher, err := secret.New(e.cfg.Secret.Key)
	if err != nil {
		log.Ctx(e.ctx).Error().Msgf("init secret cipher failed, err: %v", err)
		return err
	}

	transport, err := dep.NewMailTransport(e.ctx, e.cfg.Mail)
	if err != nil {
		log.Ctx(e.ctx).Error().Msgf("init mail transport failed, err: %v", err)
		return err
	}

	var notifier dispatch.Notifier
	if e.cfg.Kafka.Enabled() && len(e.cfg.Kafka.Topics) > 0 {
		producer, err := mq.NewProducer(e.ctx, mq.NewProducerConfig(e.cfg.Kafka))
		if err != nil {
			log.Ctx(e.ctx).Error().Msgf("init producer failed, err: %v", err)
			return err
		}
		e.closers = append(e.closers, func(context.Context) error {
			return producer.Close()
		})
		notifier = mq.NewRunNotifier(producer)
	}

	e.engine = dispatch.New(dispatch.NewOptions(e.cfg.Dispatch), dispatch.Deps{
		Templates:   repo.NewTemplateRepo(e.ctx, baseRepo, baseCache),
		Credentials: repo.NewUserRepo(e.ctx, baseRepo),
		Decrypter:   cipher,
		Transport:   transport,
		SentLog:     repo.NewSentEmailRepo(e.ctx, baseRepo),
		Ledger:      repo.NewCampaignBatchRepo(e.ctx, baseRepo),
		Notifier:    notifier,
		Files:       files,
	})
	e.closers = append(e.closers, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Minute)
		defer cancel()
		return e.engine.Shutdown(ctx)
	})

	return nil
}

func runJob(ctx context.Context, job service.Job) error {
	if err := job.Init(ctx); err != nil {
		log.Ctx(ctx).Error().Msgf("init job err: %v", err)
		return err
	}

	runErr := job.Run(ctx)
	if runErr != nil {
		log.Ctx(ctx).Error().Msgf("run job err: %v", runErr)
	}

	// a cancelled context must not prevent cleanup
	if err := job.CleanUp(context.WithoutCancel(ctx)); err != nil {
		log.Ctx(ctx).Error().Msgf("cleanup job err: %v", err)
		return err
	}

	if runErr != nil {
		return runErr
	}

	log.Ctx(ctx).Info().Msg("job executed successfully")

	return nil
}
