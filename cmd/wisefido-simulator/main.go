package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wisefido-simulator/common/logger"
	"wisefido-simulator/internal/config"
	"wisefido-simulator/internal/service"

	"go.uber.org/zap"
)

// 退出码
const (
	exitOK          = 0
	exitFailure     = 1
	exitConfigError = 2
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	// 加载配置
	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(os.Stderr, "wisefido-simulator: %v\n", err)
		return exitConfigError
	}

	// 初始化Logger
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "wisefido-simulator")
	if err != nil {
		fmt.Fprintf(os.Stderr, "wisefido-simulator: failed to initialize logger: %v\n", err)
		return exitFailure
	}
	defer log.Sync()

	log.Info("Starting wisefido-simulator",
		zap.String("mode", cfg.Mode),
		zap.String("transport", cfg.Transport),
		zap.String("mqtt_broker", cfg.MQTT.BrokerURL()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 等待中断信号；当前 tick 完成后退出
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	// 创建服务
	simulator, err := service.NewSimulatorService(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to create simulator service", zap.Error(err))
		var cerr *config.ConfigError
		if errors.As(err, &cerr) {
			return exitConfigError
		}
		return exitFailure
	}
	// 优雅关闭；Run 中途 panic 也会释放 broker 连接
	defer shutdown(simulator, log, shutdownTimeout)

	_, runErr := simulator.Run(ctx)

	if runErr != nil {
		log.Error("Simulator stopped with error", zap.Error(runErr))
		return exitFailure
	}

	log.Info("Service stopped")
	return exitOK
}

type stopper interface {
	Stop(ctx context.Context) error
}

// shutdown 在限定时间内停止服务，错误只记录不改变退出码
func shutdown(s stopper, log *zap.Logger, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}
}
