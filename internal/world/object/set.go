package object

import (
	"math/bits"
	"strings"
)

// Set множество имён каталога, один бит на имя
type Set uint64

// SetOf создаёт множество из имён
func SetOf(names ...Name) Set {
	var s Set
	for _, n := range names {
		s = s.Add(n)
	}
	return s
}

// Universe множество всех имён каталога
func Universe() Set {
	return Set(1)<<Count - 1
}

func (s Set) Add(n Name) Set { return s | 1<<n }
func (s Set) Remove(n Name) Set { return s &^ (1 << n) }
func (s Set) Has(n Name) bool { return s&(1<<n) != 0 }
func (s Set) Len() int { return bits.OnesCount64(uint64(s)) }
func (s Set) Empty() bool { return s == 0 }
func (s Set) Union(o Set) Set { return s | o }
func (s Set) Intersect(o Set) Set { return s & o }

// Single возвращает единственное имя, если множество из одного элемента
func (s Set) Single() (Name, bool) {
	if s.Len() != 1 {
		return Empty, false
	}
	return Name(bits.TrailingZeros64(uint64(s))), true
}

// Names возвращает имена по возрастанию
func (s Set) Names() []Name {
	names := make([]Name, 0, s.Len())
	for v := uint64(s); v != 0; v &= v - 1 {
		names = append(names, Name(bits.TrailingZeros64(v)))
	}
	return names
}

func (s Set) String() string {
	parts := make([]string, 0, s.Len())
	for _, n := range s.Names() {
		parts = append(parts, n.String())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
