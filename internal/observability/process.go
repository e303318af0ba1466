package observability

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcessMetrics метрики процесса генератора
type ProcessMetrics struct {
	StartTime time.Time
	proc      *process.Process
}

// NewProcessMetrics создает метрики текущего процесса
func NewProcessMetrics() (*ProcessMetrics, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	return &ProcessMetrics{StartTime: time.Now(), proc: proc}, nil
}

// Register регистрирует gauge-функции, которые считываются при каждом scrape
func (pm *ProcessMetrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tileworld",
			Name:      "process_cpu_percent",
			Help:      "Загрузка CPU процессом генератора.",
		}, func() float64 {
			v, _ := pm.CPUUsage()
			return v
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tileworld",
			Name:      "heap_alloc_megabytes",
			Help:      "Занятая куча в MB.",
		}, pm.MemoryUsage),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "tileworld",
			Name:      "uptime_seconds",
			Help:      "Время работы генератора.",
		}, func() float64 {
			return time.Since(pm.StartTime).Seconds()
		}),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Uptime возвращает время работы в читаемом виде
func (pm *ProcessMetrics) Uptime() string {
	uptime := time.Since(pm.StartTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	default:
		return fmt.Sprintf("%dс", seconds)
	}
}

// MemoryUsage возвращает занятую кучу в MB
func (pm *ProcessMetrics) MemoryUsage() float64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return float64(m.HeapAlloc) / 1024 / 1024
}

// CPUUsage возвращает использование CPU процессом в процентах
func (pm *ProcessMetrics) CPUUsage() (float64, error) {
	cpuPercent, err := pm.proc.CPUPercent()
	if err != nil {
		// Если не удалось получить метрику процесса, пробуем системную
		cpuPercents, err := cpu.Percent(100*time.Millisecond, false)
		if err != nil || len(cpuPercents) == 0 {
			return 0, err
		}
		return cpuPercents[0], nil
	}
	return cpuPercent, nil
}
