package cmd

import (
	"context"
	"fmt"
	"time"

	"candidate-evaluator/internal/common/aws"
	"candidate-evaluator/internal/common/config"
	"candidate-evaluator/internal/common/database"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/evaluation/aggregate"
	"candidate-evaluator/internal/evaluation/communication"
	"candidate-evaluator/internal/evaluation/confidence"
	"candidate-evaluator/internal/evaluation/knowledge"
	"candidate-evaluator/internal/evaluation/pipeline"
	"candidate-evaluator/internal/llm"
	"candidate-evaluator/internal/media"
	"candidate-evaluator/internal/report"
	"candidate-evaluator/internal/storage"
	"candidate-evaluator/internal/store"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// env holds the connections a command opened. close releases them.
type env struct {
	cfg    *config.Config
	zap    *zap.Logger
	log    logger.Logger
	pg     *database.PostgresClient
	redis  *database.RedisClient
	repo   *store.Repository
	closed bool
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	zapLog := logger.New(logLevel(), logFormat())
	e := &env{cfg: cfg, zap: zapLog, log: logger.NewZapAdapter(zapLog)}

	e.pg, err = database.ConnectPostgres(ctx, cfg.Database.Postgres)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	e.repo = store.NewRepository(e.pg.DB)

	// redis only backs caches here, so the CLI works without it
	if rc, err := database.ConnectRedis(ctx, cfg.Database.Redis); err == nil {
		e.redis = rc
	} else {
		e.log.Warn("redis unavailable, caches disabled", map[string]interface{}{"address": cfg.Database.Redis.Address})
	}
	return e, nil
}

func (e *env) close() {
	if e.closed {
		return
	}
	e.closed = true
	if e.redis != nil {
		e.redis.Close()
	}
	e.pg.Close()
	_ = e.zap.Sync()
}

func (e *env) redisClient() *redis.Client {
	if e.redis == nil {
		return nil
	}
	return e.redis.Client
}

func (e *env) files(ctx context.Context) (*storage.Storage, bool, error) {
	awsCfg, err := aws.LoadConfig(ctx, e.cfg.Storage.Region)
	if err != nil {
		return nil, false, fmt.Errorf("aws config: %w", err)
	}
	var objects storage.ObjectStore
	if e.cfg.Storage.Bucket != "" || e.cfg.Storage.Endpoint != "" {
		objects = aws.NewS3Client(awsCfg, e.cfg.Storage.Endpoint, e.cfg.Storage.UsePathStyle)
	}
	return storage.New(objects, e.cfg.Storage.Bucket, e.cfg.Media.WorkDir, e.log), objects != nil, nil
}

// service wires the evaluation pipeline the same way worker-manager does.
func (e *env) service(ctx context.Context) (*pipeline.Service, error) {
	cfg := e.cfg

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: %w", err)
	}
	index := store.NewResultIndex(es, cfg.Database.Elasticsearch.ResultIndex)
	if err := index.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("result index %s: %w", index.Name(), err)
	}

	llmClient, err := llm.New(ctx, cfg.LLM, e.redisClient(), e.log)
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	files, _, err := e.files(ctx)
	if err != nil {
		return nil, err
	}

	var transcriber media.Transcriber
	if whisper, err := media.NewWhisper(cfg.Media.TranscriptionKey, cfg.Media.TranscriptionURL, cfg.Media.TranscriptionModel); err == nil {
		transcriber = whisper
	}
	var faces confidence.FaceAnalyzer
	if cfg.Media.VisionURL != "" {
		faces = media.NewVisionClient(cfg.Media.VisionURL, config.GetDuration(cfg.Media.VisionTimeout))
	}
	runner := media.ExecRunner{}

	weights, err := aggregate.WeightsFromConfig(cfg.Evaluation.Weights)
	if err != nil {
		return nil, err
	}
	return pipeline.NewService(pipeline.Components{
		Repo:          e.repo,
		Index:         index,
		Files:         files,
		Transcriber:   media.NewConverter(cfg.Media, runner, transcriber, e.log),
		Confidence:    confidence.NewAnalyzer(media.NewFrameSampler(cfg.Media.FFmpegPath, cfg.Media.WorkDir, runner), faces, cfg.Evaluation.FrameSampleRate, e.log),
		Communication: communication.NewAnalyzer(e.log),
		Knowledge:     knowledge.NewAnalyzer(llmClient, e.log),
		Summarizer:    aggregate.NewSummarizer(llmClient, e.log),
	}, weights, cfg.Evaluation.MeaningfulSpeechChars, e.log), nil
}

func (e *env) exporter(ctx context.Context, outputDir string) (*report.Exporter, error) {
	files, remote, err := e.files(ctx)
	if err != nil {
		return nil, err
	}
	rc := e.cfg.Report
	if outputDir != "" {
		rc.OutputDir = outputDir
	}
	var uploader report.Uploader
	if remote && rc.Bucket != "" {
		uploader = files
	}
	return report.NewExporter(e.repo, uploader, rc, e.log), nil
}

// commandContext bounds a command by timeout; zero means no limit.
func commandContext(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
