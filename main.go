package main

import (
	"codemailer/config"
	"codemailer/dep"
	"codemailer/dispatch"
	"codemailer/handler"
	"codemailer/pkg/logutil"
	"codemailer/pkg/mq"
	"codemailer/pkg/router"
	"codemailer/pkg/secret"
	"codemailer/pkg/service"
	"codemailer/repo"
	"context"
	"errors"
	"fmt"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

type server struct {
	ctx context.Context
	opt *config.Option
	cfg *config.Config

	httpServer *http.Server
	producer   *mq.Producer

	baseRepo          repo.BaseRepo
	baseCache         repo.BaseCache
	fileRepo          repo.FileRepo
	templateRepo      repo.TemplateRepo
	userRepo          repo.UserRepo
	statsRepo         repo.StatsRepo
	campaignBatchRepo repo.CampaignBatchRepo
	sentEmailRepo     repo.SentEmailRepo
	replyRepo         repo.ReplyRepo
	attachmentRepo    repo.UploadedAttachmentRepo

	engine *dispatch.Engine

	// api handlers
	templateHandler   handler.TemplateHandler
	userHandler       handler.UserHandler
	recipientHandler  handler.RecipientHandler
	attachmentHandler handler.AttachmentHandler
	dispatchHandler   handler.DispatchHandler
	ledgerHandler     handler.LedgerHandler
	replyHandler      handler.ReplyHandler
}

func main() {
	s := new(server)
	if err := service.Run(s); err != nil {
		log.Fatal().Msg(err.Error())
	}
}

func (s *server) Init() error {
	// .env is optional
	_ = godotenv.Load()

	opt := config.NewOptions()

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		opt.LogLevel = logLevel
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		opt.ConfigPath = configPath
	}

	if serverPort := os.Getenv("PORT"); serverPort != "" {
		if port, err := strconv.Atoi(serverPort); err == nil {
			opt.Port = port
		}
	}

	s.opt = opt

	return nil
}

func (s *server) Start() error {
	var err error

	// ====== init logger ===== //

	s.ctx = logutil.InitZeroLog(context.Background(), s.opt.LogLevel)

	// ===== init config ===== //

	s.cfg = config.NewConfig()
	if err = s.cfg.Load(s.ctx, s.opt.ConfigPath); err != nil {
		log.Ctx(s.ctx).Error().Msgf("load config failed, err: %v", err)
		return err
	}

	if s.cfg.Log.File != "" {
		s.ctx = logutil.InitZeroLogWithFile(s.ctx, s.opt.LogLevel, s.cfg.Log)
	}

	// ===== init repos =====

	s.baseRepo, err = repo.NewBaseRepo(s.ctx, s.cfg.MetadataDB)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init base repo failed, err: %v", err)
		return err
	}
	defer func() {
		if err != nil && s.baseRepo != nil {
			if err := s.baseRepo.Close(s.ctx); err != nil {
				log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
				return
			}
		}
	}()

	s.baseCache = repo.NewBaseCache(s.ctx)

	// file repo
	if s.cfg.GoogleDrive.Enabled() {
		s.fileRepo, err = repo.NewFileRepo(s.ctx, s.cfg.GoogleDrive)
		if err != nil {
			log.Ctx(s.ctx).Error().Msgf("init file repo failed, err: %v", err)
			return err
		}
	} else {
		log.Ctx(s.ctx).Warn().Msg("google drive is not configured, drive attachments are disabled")
	}

	s.templateRepo = repo.NewTemplateRepo(s.ctx, s.baseRepo, s.baseCache)
	s.userRepo = repo.NewUserRepo(s.ctx, s.baseRepo)
	s.statsRepo = repo.NewStatsRepo(s.ctx, s.baseRepo)
	s.campaignBatchRepo = repo.NewCampaignBatchRepo(s.ctx, s.baseRepo)
	s.sentEmailRepo = repo.NewSentEmailRepo(s.ctx, s.baseRepo)
	s.replyRepo = repo.NewReplyRepo(s.ctx, s.baseRepo)
	s.attachmentRepo = repo.NewUploadedAttachmentRepo(s.ctx, s.baseRepo)

	// ===== init dispatch engine ===== //

	cipher, err := secret.New(s.cfg.Secret.Key)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init secret cipher failed, err: %v", err)
		return err
	}

	transport, err := dep.NewMailTransport(s.ctx, s.cfg.Mail)
	if err != nil {
		log.Ctx(s.ctx).Error().Msgf("init mail transport failed, err: %v", err)
		return err
	}

	var notifier dispatch.Notifier
	if s.cfg.Kafka.Enabled() && len(s.cfg.Kafka.Topics) > 0 {
		s.producer, err = mq.NewProducer(s.ctx, mq.NewProducerConfig(s.cfg.Kafka))
		if err != nil {
			log.Ctx(s.ctx).Error().Msgf("init producer failed, err: %v", err)
			return err
		}
		notifier = mq.NewRunNotifier(s.producer)
	}

	var files dep.FileDownloader
	if s.fileRepo != nil {
		files = s.fileRepo
	}

	s.engine = dispatch.New(dispatch.NewOptions(s.cfg.Dispatch), dispatch.Deps{
		Templates:   s.templateRepo,
		Credentials: s.userRepo,
		Decrypter:   cipher,
		Transport:   transport,
		SentLog:     s.sentEmailRepo,
		Ledger:      s.campaignBatchRepo,
		Notifier:    notifier,
		Files:       files,
	})

	// ===== init handlers ===== //

	var fileStore handler.FileStore
	if s.fileRepo != nil {
		fileStore = s.fileRepo
	}

	s.templateHandler = handler.NewTemplateHandler(s.templateRepo)
	s.userHandler = handler.NewUserHandler(s.userRepo, cipher)
	s.recipientHandler = handler.NewRecipientHandler(s.templateRepo)
	s.attachmentHandler = handler.NewAttachmentHandler(fileStore, s.attachmentRepo)
	s.dispatchHandler = handler.NewDispatchHandler(s.templateRepo, handler.NewEngineDispatcher(s.engine))
	s.ledgerHandler = handler.NewLedgerHandler(s.campaignBatchRepo, s.statsRepo)
	s.replyHandler = handler.NewReplyHandler(s.replyRepo)

	// ===== start server ===== //

	addr := fmt.Sprintf(":%d", s.opt.Port)

	s.httpServer = &http.Server{
		BaseContext: func(_ net.Listener) context.Context {
			return s.ctx
		},
		Addr: addr,
		Handler: cors.New(cors.Options{
			AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		}).Handler(router.Log(s.registerRoutes())),
	}

	go func() {
		log.Info().Msgf("starting HTTP server at %s", addr)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fail to start HTTP server, err: %v", err)
		}
	}()

	return nil
}

const engineShutdownTimeout = time.Minute

func (s *server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("shutdown HTTP server failed, err: %v", err)
		}
	}

	// runs still sending must reach the ledger before the repos close
	if s.engine != nil {
		ctx, cancel := context.WithTimeout(s.ctx, engineShutdownTimeout)
		defer cancel()
		if err := s.engine.Shutdown(ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("shutdown dispatch engine failed, err: %v", err)
		}
	}

	if s.producer != nil {
		if err := s.producer.Close(); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close producer failed, err: %v", err)
		}
	}

	if s.fileRepo != nil {
		if err := s.fileRepo.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close file repo failed, err: %v", err)
		}
	}

	if s.baseCache != nil {
		if err := s.baseCache.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close base cache failed, err: %v", err)
		}
	}

	if s.baseRepo != nil {
		if err := s.baseRepo.Close(s.ctx); err != nil {
			log.Ctx(s.ctx).Error().Msgf("close base repo failed, err: %v", err)
			return err
		}
	}

	return nil
}

type HealthCheckRequest struct{}

type HealthCheckResponse struct{}

func (s *server) registerRoutes() http.Handler {
	r := &router.HttpRouter{
		Router: mux.NewRouter(),
	}

	r.Handle(config.PathMetrics, promhttp.Handler()).Methods(http.MethodGet)

	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathHealthCheck,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(HealthCheckRequest),
			Res: new(HealthCheckResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return nil
			},
		},
	})

	// create_template
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathCreateTemplate,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.CreateTemplateRequest),
			Res: new(handler.CreateTemplateResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.templateHandler.CreateTemplate(ctx, req.(*handler.CreateTemplateRequest), res.(*handler.CreateTemplateResponse))
			},
		},
	})

	// get_template
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetTemplate,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetTemplateRequest),
			Res: new(handler.GetTemplateResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.templateHandler.GetTemplate(ctx, req.(*handler.GetTemplateRequest), res.(*handler.GetTemplateResponse))
			},
		},
	})

	// get_templates
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetTemplates,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.GetTemplatesRequest),
			Res: new(handler.GetTemplatesResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.templateHandler.GetTemplates(ctx, req.(*handler.GetTemplatesRequest), res.(*handler.GetTemplatesResponse))
			},
		},
	})

	// update_template
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathUpdateTemplate,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.UpdateTemplateRequest),
			Res: new(handler.UpdateTemplateResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.templateHandler.UpdateTemplate(ctx, req.(*handler.UpdateTemplateRequest), res.(*handler.UpdateTemplateResponse))
			},
		},
	})

	// delete_template
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathDeleteTemplate,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.DeleteTemplateRequest),
			Res: new(handler.DeleteTemplateResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.templateHandler.DeleteTemplate(ctx, req.(*handler.DeleteTemplateRequest), res.(*handler.DeleteTemplateResponse))
			},
		},
	})

	// set_app_password
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathSetAppPassword,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.SetAppPasswordRequest),
			Res: new(handler.SetAppPasswordResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.userHandler.SetAppPassword(ctx, req.(*handler.SetAppPasswordRequest), res.(*handler.SetAppPasswordResponse))
			},
		},
	})

	// upload_recipients
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathUploadRecipients,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.UploadRecipientsRequest),
			Res: new(handler.UploadRecipientsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.recipientHandler.UploadRecipients(ctx, req.(*handler.UploadRecipientsRequest), res.(*handler.UploadRecipientsResponse))
			},
		},
	})

	// upload_attachment
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathUploadAttachment,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.UploadAttachmentRequest),
			Res: new(handler.UploadAttachmentResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.attachmentHandler.UploadAttachment(ctx, req.(*handler.UploadAttachmentRequest), res.(*handler.UploadAttachmentResponse))
			},
		},
	})

	// get_attachments
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetAttachments,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetAttachmentsRequest),
			Res: new(handler.GetAttachmentsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.attachmentHandler.GetAttachments(ctx, req.(*handler.GetAttachmentsRequest), res.(*handler.GetAttachmentsResponse))
			},
		},
	})

	// delete_attachment
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathDeleteAttachment,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.DeleteAttachmentRequest),
			Res: new(handler.DeleteAttachmentResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.attachmentHandler.DeleteAttachment(ctx, req.(*handler.DeleteAttachmentRequest), res.(*handler.DeleteAttachmentResponse))
			},
		},
	})

	// get_sample_file
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetSampleFile,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetSampleFileRequest),
			Res: new(handler.GetSampleFileResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.recipientHandler.GetSampleFile(ctx, req.(*handler.GetSampleFileRequest), res.(*handler.GetSampleFileResponse))
			},
		},
	})

	// preview_dispatch
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathPreviewDispatch,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.PreviewDispatchRequest),
			Res: new(handler.PreviewDispatchResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.dispatchHandler.PreviewDispatch(ctx, req.(*handler.PreviewDispatchRequest), res.(*handler.PreviewDispatchResponse))
			},
		},
	})

	// create_dispatch
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathCreateDispatch,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.CreateDispatchRequest),
			Res: new(handler.CreateDispatchResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.dispatchHandler.CreateDispatch(ctx, req.(*handler.CreateDispatchRequest), res.(*handler.CreateDispatchResponse))
			},
		},
	})

	// get_dispatch_run
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetDispatchRun,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetDispatchRunRequest),
			Res: new(handler.GetDispatchRunResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.dispatchHandler.GetDispatchRun(ctx, req.(*handler.GetDispatchRunRequest), res.(*handler.GetDispatchRunResponse))
			},
		},
	})

	// cancel_dispatch_run
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathCancelDispatchRun,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.CancelDispatchRunRequest),
			Res: new(handler.CancelDispatchRunResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.dispatchHandler.CancelDispatchRun(ctx, req.(*handler.CancelDispatchRunRequest), res.(*handler.CancelDispatchRunResponse))
			},
		},
	})

	// get_campaign_batches
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetCampaignBatches,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetCampaignBatchesRequest),
			Res: new(handler.GetCampaignBatchesResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.ledgerHandler.GetCampaignBatches(ctx, req.(*handler.GetCampaignBatchesRequest), res.(*handler.GetCampaignBatchesResponse))
			},
		},
	})

	// get_stats
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetStats,
		Method: http.MethodGet,
		Handler: router.Handler{
			Req: new(handler.GetStatsRequest),
			Res: new(handler.GetStatsResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.ledgerHandler.GetStats(ctx, req.(*handler.GetStatsRequest), res.(*handler.GetStatsResponse))
			},
		},
	})

	// add_replies
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathAddReplies,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.AddRepliesRequest),
			Res: new(handler.AddRepliesResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.replyHandler.AddReplies(ctx, req.(*handler.AddRepliesRequest), res.(*handler.AddRepliesResponse))
			},
		},
	})

	// get_replies
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathGetReplies,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.GetRepliesRequest),
			Res: new(handler.GetRepliesResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.replyHandler.GetReplies(ctx, req.(*handler.GetRepliesRequest), res.(*handler.GetRepliesResponse))
			},
		},
	})

	// delete_reply
	r.RegisterHttpRoute(&router.HttpRoute{
		Path:   config.PathDeleteReply,
		Method: http.MethodPost,
		Handler: router.Handler{
			Req: new(handler.DeleteReplyRequest),
			Res: new(handler.DeleteReplyResponse),
			HandleFunc: func(ctx context.Context, req, res interface{}) error {
				return s.replyHandler.DeleteReply(ctx, req.(*handler.DeleteReplyRequest), res.(*handler.DeleteReplyResponse))
			},
		},
	})

	return r
}
