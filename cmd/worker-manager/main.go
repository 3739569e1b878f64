// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"candidate-evaluator/internal/common/aws"
	"candidate-evaluator/internal/common/camunda"
	"candidate-evaluator/internal/common/config"
	"candidate-evaluator/internal/common/database"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/observability"
	"candidate-evaluator/internal/common/queue"
	"candidate-evaluator/internal/evaluation/aggregate"
	"candidate-evaluator/internal/evaluation/communication"
	"candidate-evaluator/internal/evaluation/confidence"
	"candidate-evaluator/internal/evaluation/knowledge"
	"candidate-evaluator/internal/evaluation/pipeline"
	"candidate-evaluator/internal/evaluation/questions"
	"candidate-evaluator/internal/evaluation/resume"
	"candidate-evaluator/internal/extract"
	"candidate-evaluator/internal/intake"
	"candidate-evaluator/internal/llm"
	"candidate-evaluator/internal/media"
	"candidate-evaluator/internal/report"
	"candidate-evaluator/internal/storage"
	"candidate-evaluator/internal/store"
	"candidate-evaluator/pkg/registry"

	ar "candidate-evaluator/internal/workers/evaluation/analyze-resume"
	ei "candidate-evaluator/internal/workers/evaluation/evaluate-interview"
	er "candidate-evaluator/internal/workers/evaluation/export-ranking-report"
	gq "candidate-evaluator/internal/workers/evaluation/generate-questions"
	rp "candidate-evaluator/internal/workers/evaluation/recalculate-percentiles"
	rhd "candidate-evaluator/internal/workers/evaluation/record-hr-decision"
	sn "candidate-evaluator/internal/workers/evaluation/send-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment))

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}
	defer func() {
		if err := obs.Shutdown(context.Background()); err != nil {
			zapLog.Warn("observability shutdown", zap.Error(err))
		}
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.ConnectPostgres(ctx, cfg.Database.Postgres)
		return err
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.ConnectElasticsearch(ctx, cfg.Database.Elasticsearch)
		return err
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.ConnectRedis(ctx, cfg.Database.Redis)
		return err
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Domain services ---
	repo := store.NewRepository(pg.DB)
	index := store.NewResultIndex(esClient, cfg.Database.Elasticsearch.ResultIndex)
	if err := index.Ensure(ctx); err != nil {
		zapLog.Fatal("result index setup failed", zap.Error(err), zap.String("index", index.Name()))
	}

	llmClient, err := llm.New(ctx, cfg.LLM, redis.Client, log)
	if err != nil {
		zapLog.Fatal("llm client failed", zap.Error(err))
	}
	if llmClient == nil {
		zapLog.Warn("no llm provider configured, using deterministic fallbacks")
	}

	awsCfg, err := aws.LoadConfig(ctx, cfg.Storage.Region)
	if err != nil {
		zapLog.Fatal("aws config failed", zap.Error(err))
	}
	var objects storage.ObjectStore
	if cfg.Storage.Bucket != "" || cfg.Storage.Endpoint != "" {
		objects = aws.NewS3Client(awsCfg, cfg.Storage.Endpoint, cfg.Storage.UsePathStyle)
	}
	files := storage.New(objects, cfg.Storage.Bucket, cfg.Media.WorkDir, log)

	extractor, err := extract.New(cfg.Extraction, log)
	if err != nil {
		zapLog.Fatal("text extractor failed", zap.Error(err))
	}
	resumes := pipeline.NewResumeReader(files, extractor, redis.Client,
		time.Duration(cfg.Extraction.CacheTTL)*time.Second, log)

	var transcriber media.Transcriber
	if whisper, err := media.NewWhisper(cfg.Media.TranscriptionKey, cfg.Media.TranscriptionURL, cfg.Media.TranscriptionModel); err == nil {
		transcriber = whisper
	} else {
		zapLog.Warn("speech-to-text disabled", zap.Error(err))
	}
	var faces confidence.FaceAnalyzer
	if cfg.Media.VisionURL != "" {
		faces = media.NewVisionClient(cfg.Media.VisionURL, config.GetDuration(cfg.Media.VisionTimeout))
	} else {
		zapLog.Warn("vision model server not configured, confidence pillar disabled")
	}
	runner := media.ExecRunner{}

	weights, err := aggregate.WeightsFromConfig(cfg.Evaluation.Weights)
	if err != nil {
		zapLog.Fatal("invalid weights", zap.Error(err))
	}
	service := pipeline.NewService(pipeline.Components{
		Repo:          repo,
		Index:         index,
		Files:         files,
		Transcriber:   media.NewConverter(cfg.Media, runner, transcriber, log),
		Confidence:    confidence.NewAnalyzer(media.NewFrameSampler(cfg.Media.FFmpegPath, cfg.Media.WorkDir, runner), faces, cfg.Evaluation.FrameSampleRate, log),
		Communication: communication.NewAnalyzer(log),
		Knowledge:     knowledge.NewAnalyzer(llmClient, log),
		Summarizer:    aggregate.NewSummarizer(llmClient, log),
		Observability: obs,
	}, weights, cfg.Evaluation.MeaningfulSpeechChars, log)

	var uploader report.Uploader
	if objects != nil && cfg.Report.Bucket != "" {
		uploader = files
	}
	exporter := report.NewExporter(repo, uploader, cfg.Report, log)

	var email sn.EmailSender
	if cfg.Notifications.Email.Enabled {
		email = aws.NewSESClient(awsCfg, cfg.Notifications.Email.FromEmail)
	}
	var sms sn.SMSSender
	if cfg.Notifications.SMS.Enabled {
		sms = aws.NewSNSClient(awsCfg, cfg.Notifications.SMS.SenderID)
	}
	templates, err := sn.LoadTemplates(cfg.Notifications.TemplatePath)
	if err != nil {
		zapLog.Fatal("notification templates failed", zap.Error(err))
	}

	reg, err := registry.LoadRegistry(cfg.RegistryPath)
	if err != nil {
		zapLog.Warn("activity registry unavailable, job variables are not schema-checked",
			zap.Error(err), zap.String("path", cfg.RegistryPath))
	}

	zapLog.Info("All domain services initialized")

	// --- Register Workers ---
	var workers []*camunda.CamundaWorker
	start := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.NewWorker(zeebe.GetClient(), taskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(wcfg.Timeout),
		}, handler, zapLog))
	}
	timeout := func(taskType string) time.Duration {
		return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
	}

	{
		c := ar.LoadConfig()
		c.Timeout = timeout(ar.TaskType)
		c.ShortlistThreshold = cfg.Evaluation.ShortlistThreshold
		c.InputSchema = reg.InputSchema(ar.TaskType)
		start(ar.TaskType, ar.NewHandler(c, repo, resumes, resume.NewMatcher(llmClient, log), log))
	}
	{
		c := gq.LoadConfig()
		c.Timeout = timeout(gq.TaskType)
		c.QuestionCount = cfg.Evaluation.QuestionsPerInterview
		c.TimeLimitSeconds = cfg.Evaluation.AnswerTimeLimitSeconds
		c.Validity = time.Duration(cfg.Evaluation.InterviewValidityHours) * time.Hour
		c.InputSchema = reg.InputSchema(gq.TaskType)
		start(gq.TaskType, gq.NewHandler(c, repo, resumes, questions.NewGenerator(llmClient, log), log))
	}
	{
		c := ei.LoadConfig()
		c.Timeout = timeout(ei.TaskType)
		c.InputSchema = reg.InputSchema(ei.TaskType)
		start(ei.TaskType, ei.NewHandler(c, service, log))
	}
	{
		c := rhd.LoadConfig()
		c.Timeout = timeout(rhd.TaskType)
		c.InputSchema = reg.InputSchema(rhd.TaskType)
		start(rhd.TaskType, rhd.NewHandler(c, service, log))
	}
	{
		c := rp.LoadConfig()
		c.Timeout = timeout(rp.TaskType)
		c.InputSchema = reg.InputSchema(rp.TaskType)
		start(rp.TaskType, rp.NewHandler(c, service, log))
	}
	{
		c := er.LoadConfig()
		c.Timeout = timeout(er.TaskType)
		c.InputSchema = reg.InputSchema(er.TaskType)
		start(er.TaskType, er.NewHandler(c, exporter, log))
	}
	{
		c := sn.LoadConfig()
		c.Timeout = timeout(sn.TaskType)
		c.EmailEnabled = cfg.Notifications.Email.Enabled
		c.SMSEnabled = cfg.Notifications.SMS.Enabled
		c.InputSchema = reg.InputSchema(sn.TaskType)
		start(sn.TaskType, sn.NewHandler(c, repo, email, sms, templates, log))
	}
	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Evaluation intake queue ---
	var mq *queue.RabbitMQ
	if cfg.Queue.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			mq, err = queue.New(cfg.Queue, log)
			return err
		}, 10, 2*time.Second, zapLog, "RabbitMQ connection")
		if err != nil {
			zapLog.Fatal("rabbitmq failed after retries", zap.Error(err))
		}
		handler := intake.New(zeebe, cfg.Camunda.ProcessID, log)
		go func() {
			if err := mq.Consume(ctx, handler.Handle); err != nil {
				zapLog.Error("intake consumer stopped", zap.Error(err))
			}
		}()
	}

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		checks := map[string]string{"zeebe": "ok", "postgres": "ok"}
		status := http.StatusOK
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			checks["zeebe"], status = err.Error(), http.StatusServiceUnavailable
		}
		if err := pg.Ping(checkCtx); err != nil {
			checks["postgres"], status = err.Error(), http.StatusServiceUnavailable
		}
		checks["time"] = time.Now().Format(time.RFC3339)
		writeStatus(w, status, checks)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	srv := &http.Server{Addr: cfg.App.HTTPAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.App.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if mq != nil {
		if err := mq.Close(); err != nil {
			zapLog.Error("Error closing RabbitMQ", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
