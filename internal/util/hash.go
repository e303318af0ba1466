package util

// Быстрое детерминированное хеширование для сидов и розыгрышей.
// Не использует math/rand: результат стабилен между версиями и платформами.

// Mix64 перемешивает 64-битное значение (финализатор splitmix64)
func Mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Hash32 перемешивает 32-битное значение
func Hash32(x uint32) uint32 {
	x ^= x >> 16
	x *= 0x7feb352d
	x ^= x >> 15
	x *= 0x846ca68b
	x ^= x >> 16
	return x
}

// Hash возвращает стабильный хеш сида и произвольного набора целых ключей.
// Порядок ключей важен.
func Hash(seed int64, keys ...int64) uint64 {
	h := Mix64(uint64(seed) ^ 0x9e3779b97f4a7c15)
	for _, k := range keys {
		h = Mix64(h ^ (uint64(k) * 0x85ebca6b))
		h += 0xc2b2ae35
	}
	return Mix64(h)
}

// Unit переводит хеш в число из [0,1)
func Unit(h uint64) float64 {
	return float64(h>>11) / float64(uint64(1)<<53)
}

// Stream детерминированный генератор, привязанный к стабильному ключу.
// Каждое значение зависит только от ключа и номера розыгрыша.
type Stream struct {
	key   uint64
	draws int64
}

// NewStream создаёт генератор для сида и набора ключей
func NewStream(seed int64, keys ...int64) *Stream {
	return &Stream{key: Hash(seed, keys...)}
}

// Uint64 возвращает следующее значение
func (s *Stream) Uint64() uint64 {
	s.draws++
	return Mix64(s.key + uint64(s.draws)*0x9e3779b97f4a7c15)
}

// Float64 возвращает следующее значение из [0,1)
func (s *Stream) Float64() float64 {
	return Unit(s.Uint64())
}

// Intn возвращает значение из [0,n)
func (s *Stream) Intn(n int) int {
	if n <= 0 {
		panic("util: Intn с неположительным n")
	}
	return int(s.Uint64() % uint64(n))
}

// Draws количество выполненных розыгрышей
func (s *Stream) Draws() int64 { return s.draws }
