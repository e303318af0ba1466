package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel разбирает уровень из конфигурации (регистр не важен)
func ParseLevel(s string) (LogLevel, error) {
	for l := TRACE; l <= ERROR; l++ {
		if strings.EqualFold(l.String(), s) {
			return l, nil
		}
	}
	return INFO, fmt.Errorf("неизвестный уровень логирования %q", s)
}

// LogDir каталог файлов логов
var LogDir = "logs"

// Logger пишет сообщения компонента в консоль и, при наличии, в файл
type Logger struct {
	component       string
	consoleLogger   *log.Logger
	fileLogger      *log.Logger
	file            *os.File
	minConsoleLevel LogLevel
	minFileLevel    LogLevel
	mu              sync.Mutex
}

// NewLogger создаёт логгер компонента с файлом logs/<component>_<время>.log
func NewLogger(component string) (*Logger, error) {
	if err := os.MkdirAll(LogDir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории %s: %w", LogDir, err)
	}

	// Создаем файл для логов с временной меткой
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := filepath.Join(LogDir, fmt.Sprintf("%s_%s.log", component, timestamp))

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания файла логов: %w", err)
	}

	return &Logger{
		component:       component,
		consoleLogger:   log.New(os.Stdout, "", log.LstdFlags),
		fileLogger:      log.New(file, "", log.LstdFlags),
		file:            file,
		minConsoleLevel: INFO,
		minFileLevel:    TRACE,
	}, nil
}

// NewConsoleLogger создаёт логгер без файла
func NewConsoleLogger(component string, w io.Writer, level LogLevel) *Logger {
	return &Logger{
		component:       component,
		consoleLogger:   log.New(w, "", log.LstdFlags),
		minConsoleLevel: level,
		minFileLevel:    ERROR,
	}
}

// SetLevels меняет минимальные уровни для консоли и файла
func (l *Logger) SetLevels(console, file LogLevel) {
	l.mu.Lock()
	l.minConsoleLevel = console
	l.minFileLevel = file
	l.mu.Unlock()
}

// Close закрывает файл логов
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.fileLogger = nil
	return err
}

// Log пишет сообщение указанного уровня
func (l *Logger) Log(level LogLevel, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	message := fmt.Sprintf("[%s] [%s] %s", level.String(), l.component, fmt.Sprintf(format, args...))

	if l.fileLogger != nil && level >= l.minFileLevel {
		l.fileLogger.Println(message)
	}
	if l.consoleLogger != nil && level >= l.minConsoleLevel {
		l.consoleLogger.Println(message)
	}
}

func (l *Logger) Trace(format string, args ...interface{}) { l.Log(TRACE, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.Log(DEBUG, format, args...) }
func (l *Logger) Info(format string, args ...interface{}) { l.Log(INFO, format, args...) }
func (l *Logger) Warn(format string, args ...interface{}) { l.Log(WARN, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.Log(ERROR, format, args...) }

// Глобальный логгер. До InitDefaultLogger пишет только в консоль.
var (
	defaultMu     sync.RWMutex
	defaultLogger = NewConsoleLogger("main", os.Stdout, INFO)
)

// InitDefaultLogger инициализирует глобальный логгер с файлом
func InitDefaultLogger(component string) error {
	logger, err := NewLogger(component)
	if err != nil {
		return err
	}
	defaultMu.Lock()
	defaultLogger = logger
	defaultMu.Unlock()
	return nil
}

// SetDefaultLogger заменяет глобальный логгер
func SetDefaultLogger(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

// CloseDefaultLogger закрывает файл глобального логгера
func CloseDefaultLogger() {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	_ = l.Close()
}

func current() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Trace логирует сообщение уровня TRACE
func Trace(format string, args ...interface{}) { current().Log(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func Debug(format string, args ...interface{}) { current().Log(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func Info(format string, args ...interface{}) { current().Log(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func Warn(format string, args ...interface{}) { current().Log(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func Error(format string, args ...interface{}) { current().Log(ERROR, format, args...) }

// LogChunkGenerated логирует готовый чанк
func LogChunkGenerated(chunkX, chunkY int, objects, paths, attempts int, degraded bool, took time.Duration) {
	if degraded {
		Warn("Чанк (%d,%d) собран с откатом на Empty: объектов=%d дорог=%d попыток=%d за %v",
			chunkX, chunkY, objects, paths, attempts, took)
		return
	}
	Debug("Чанк (%d,%d) готов: объектов=%d дорог=%d попыток=%d за %v",
		chunkX, chunkY, objects, paths, attempts, took)
}
