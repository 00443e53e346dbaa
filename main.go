package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	rek "github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/ppe-scan/internal/config"
	"github.com/example/ppe-scan/internal/handlers"
	"github.com/example/ppe-scan/internal/logging"
	"github.com/example/ppe-scan/internal/metrics"
	"github.com/example/ppe-scan/internal/rekognition"
	"github.com/example/ppe-scan/internal/storage"
	"github.com/example/ppe-scan/internal/usecase"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	awsCfg := loadAWSConfig(ctx, cfg, logger)
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3ForcePathStyle
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})
	rekClient := rek.NewFromConfig(awsCfg, func(o *rek.Options) {
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})

	registry := metrics.NewRegistry(true)

	var opts []usecase.Option
	if cfg.CacheEnabled() {
		redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
		defer redisCancel()
		redisClient := initRedis(redisCtx, cfg.RedisAddr, logger)
		defer redisClient.Close()
		opts = append(opts, usecase.WithDetectionCache(usecase.NewRedisCache(redisClient), cfg.DetectionCacheTTL))
		logger.Info("detection cache enabled", zap.String("redis_addr", cfg.RedisAddr), zap.Duration("ttl", cfg.DetectionCacheTTL))
	}

	uc := usecase.NewScanUseCase(
		storage.NewS3Lister(s3Client, cfg.S3MaxKeys, logger),
		rekognition.NewClient(rekClient, logger),
		registry,
		logger,
		opts...,
	)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: newRouter(uc, registry, gin.Default()),
	}

	logger.Info("PPE scan API listening", zap.String("addr", cfg.HTTPAddr), zap.String("region", awsCfg.Region))
	if err := serveHTTPServer(server, cfg.ShutdownTimeout, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func newRouter(scanner handlers.Scanner, registry *metrics.Registry, r *gin.Engine) *gin.Engine {
	handlers.RegisterRoutes(r, scanner, registry.Handler())
	return r
}

func loadAWSConfig(ctx context.Context, cfg config.Config, zapLogger *zap.Logger) aws.Config {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.AWSRegion != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		zapLogger.Fatal("failed to load AWS configuration", zap.Error(err))
	}
	return awsCfg
}

func initRedis(ctx context.Context, addr string, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}
