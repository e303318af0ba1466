package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/tileworld/internal/api"
	"github.com/annel0/tileworld/internal/config"
	"github.com/annel0/tileworld/internal/eventbus"
	"github.com/annel0/tileworld/internal/logging"
	"github.com/annel0/tileworld/internal/observability"
	"github.com/annel0/tileworld/internal/pipeline"
	"github.com/annel0/tileworld/internal/ruleset"
	"github.com/annel0/tileworld/internal/vec"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или TILEWORLD_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := setupLogging(cfg.Logging); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	logging.Info("🌍 Запуск генератора мира tileworld (сид %d)...", cfg.World.GetSeed())

	// === ПРАВИЛА ===
	rules, err := loadRules(cfg.Ruleset)
	if err != nil {
		logging.Error("❌ Ошибка загрузки правил: %v", err)
		os.Exit(1)
	}
	for _, w := range rules.Warnings() {
		logging.Warn("⚠️  Правила: %s", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === ТЕЛЕМЕТРИЯ ===
	shutdownTelemetry := observability.Shutdown(observability.NoopShutdown)
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err = observability.InitTelemetry(ctx, cfg.Telemetry.GetServiceName(), cfg.Telemetry.GetEndpoint())
		if err != nil {
			logging.Warn("⚠️  Трассировка выключена: %v", err)
			shutdownTelemetry = observability.NoopShutdown
		} else {
			logging.Info("📡 Трассировка OTLP: %s", cfg.Telemetry.GetEndpoint())
		}
	}

	// === МЕТРИКИ ===
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	process, err := observability.NewProcessMetrics()
	if err != nil {
		logging.Warn("⚠️  Метрики процесса недоступны: %v", err)
	} else if err := process.Register(reg); err != nil {
		logging.Warn("⚠️  Метрики процесса не зарегистрированы: %v", err)
	}

	// === СОБЫТИЯ ===
	bus := eventbus.NewMemoryBus(1024)
	eventbus.Init(bus)
	listener, err := eventbus.StartLoggingListener(bus)
	if err != nil {
		logging.Warn("⚠️  Логирование событий выключено: %v", err)
	}
	exporter := eventbus.NewMetricsExporter(bus, reg)
	exporter.Start(5 * time.Second)

	// === КОНВЕЙЕР ===
	gen, err := pipeline.New(pipeline.ConfigFrom(cfg), pipeline.Deps{
		Rules:      rules,
		Bus:        bus,
		Registerer: reg,
	})
	if err != nil {
		logging.Error("❌ Ошибка создания конвейера: %v", err)
		os.Exit(1)
	}

	server, err := api.NewRestServer(api.Config{
		Addr:        fmt.Sprintf(":%d", cfg.Server.GetHTTPPort()),
		ServiceName: cfg.Telemetry.GetServiceName(),
		Pipeline:    gen,
		Process:     process,
		Bus:         bus,
		Registerer:  reg,
		Gatherer:    reg,
	})
	if err != nil {
		logging.Error("❌ Ошибка создания HTTP API: %v", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start() }()

	pregenerate(ctx, gen, cfg.Pipeline.GetPregenRadius())

	logging.Info("✅ Генератор готов")
	logging.Info("   🌐 API: http://localhost:%d/api/chunks/0/0/map", cfg.Server.GetHTTPPort())
	logging.Info("   📊 Метрики: http://localhost:%d/metrics", cfg.Server.GetHTTPPort())

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал завершения, останавливаемся...")
	case err := <-serverErr:
		if err != nil {
			logging.Error("❌ HTTP API остановился: %v", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logging.Debug("Остановка HTTP API...")
	if err := server.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки HTTP API: %v", err)
	}

	logging.Debug("Остановка конвейера...")
	gen.Close()

	if listener != nil {
		listener.Unsubscribe()
	}
	bus.Close()
	exporter.Stop()
	eventbus.Init(nil)

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("⚠️  Ошибка остановки трассировки: %v", err)
	}

	logging.Info("👋 Генератор остановлен")
}

func setupLogging(cfg config.LoggingConfig) error {
	level, err := logging.ParseLevel(cfg.GetLevel())
	if err != nil {
		return err
	}
	logging.LogDir = cfg.GetDir()
	lm := logging.GetLoggerManager()
	lm.Configure(cfg.Files, level)
	for component, name := range cfg.Components {
		l, err := logging.ParseLevel(name)
		if err != nil {
			return err
		}
		lm.MustGetLogger(component)
		if err := lm.SetLogLevel(component, l, logging.TRACE); err != nil {
			return err
		}
	}

	if !cfg.Files {
		logging.SetDefaultLogger(logging.NewConsoleLogger("server", os.Stdout, level))
		return nil
	}
	logger, err := logging.NewLogger("server")
	if err != nil {
		return err
	}
	logger.SetLevels(level, logging.TRACE)
	logging.SetDefaultLogger(logger)
	return nil
}

func loadRules(cfg config.RulesetConfig) (*ruleset.Set, error) {
	opts := ruleset.Options{Strict: cfg.Strict}
	if cfg.Dir != "" {
		logging.Info("📂 Правила из каталога %s", cfg.Dir)
		return ruleset.LoadDir(cfg.Dir, opts)
	}
	return ruleset.LoadDefault(opts)
}

// pregenerate строит квадрат чанков вокруг начала координат
func pregenerate(ctx context.Context, gen *pipeline.Pipeline, radius int) {
	start := time.Now()
	chunks, err := gen.GenerateArea(ctx, vec.Vec2{}, radius)
	if err != nil {
		logging.Warn("⚠️  Предварительная генерация прервана: %v", err)
		return
	}
	degraded := 0
	for _, c := range chunks {
		if c.Degraded {
			degraded++
		}
	}
	logging.Info("🗺️  Предварительно сгенерировано %d чанков (с откатом: %d) за %v", len(chunks), degraded, time.Since(start))
}
