package logging

import (
	"fmt"
	"os"
	"sort"
	"sync"
)

// LoggerManager управляет множественными логгерами для разных компонентов
type LoggerManager struct {
	mu       sync.RWMutex
	loggers  map[string]*Logger
	useFiles bool
	console  LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров.
// По умолчанию компонентные логгеры пишут только в консоль.
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers: make(map[string]*Logger),
			console: INFO,
		}
	})
	return globalManager
}

// Configure включает файлы логов и задаёт уровень консоли для новых логгеров
func (lm *LoggerManager) Configure(useFiles bool, console LogLevel) {
	lm.mu.Lock()
	lm.useFiles = useFiles
	lm.console = console
	lm.mu.Unlock()
}

// GetLogger возвращает логгер для компонента, создавая его при необходимости
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	if logger, exists := lm.loggers[component]; exists {
		lm.mu.RUnlock()
		return logger, nil
	}
	lm.mu.RUnlock()

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, exists := lm.loggers[component]; exists {
		return logger, nil
	}

	var logger *Logger
	if lm.useFiles {
		l, err := NewLogger(component)
		if err != nil {
			return nil, fmt.Errorf("логгер %s: %w", component, err)
		}
		l.minConsoleLevel = lm.console
		logger = l
	} else {
		logger = NewConsoleLogger(component, os.Stdout, lm.console)
	}

	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер или создает fallback при ошибке
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		return NewConsoleLogger(component, os.Stdout, INFO)
	}
	return logger
}

// CloseAll закрывает все логгеры
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("закрытие логгера %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// ListComponents возвращает отсортированный список компонентов
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// SetLogLevel устанавливает уровень логирования для компонента
func (lm *LoggerManager) SetLogLevel(component string, consoleLevel, fileLevel LogLevel) error {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("логгер компонента %s не создан", component)
	}

	logger.SetLevels(consoleLevel, fileLevel)
	return nil
}

// GetComponentLogger логгер компонента из глобального менеджера
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetPipelineLogger() *Logger {
	return GetComponentLogger("pipeline")
}

func GetWfcLogger() *Logger {
	return GetComponentLogger("wfc")
}

func GetPathLogger() *Logger {
	return GetComponentLogger("paths")
}

func GetSettlementLogger() *Logger {
	return GetComponentLogger("settlements")
}
