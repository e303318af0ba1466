package codec

import (
	"fmt"

	"github.com/annel0/tileworld/internal/world"
	"github.com/klauspost/compress/zstd"
)

// ChunkCompressor кодирует готовый чанк в компактный вид для передачи
// потребителям (события шины, дамп на диск).
type ChunkCompressor interface {
	Compress(c *world.Chunk) ([]byte, error)
	Decompress(payload []byte) (*world.Chunk, error)
}

type passthroughCompressor struct{}

// NewPassthroughCompressor возвращает компрессор без сжатия
func NewPassthroughCompressor() ChunkCompressor { return &passthroughCompressor{} }

func (p *passthroughCompressor) Compress(c *world.Chunk) ([]byte, error) {
	return c.Encode(), nil
}

func (p *passthroughCompressor) Decompress(payload []byte) (*world.Chunk, error) {
	return world.Decode(payload)
}

// zstdCompressor применяет zstd поверх двоичного формата чанка.
// EncodeAll/DecodeAll безопасны для конкурентного использования.
type zstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCompressor создаёт компрессор zstd
func NewZstdCompressor() (ChunkCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("ошибка создания zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания zstd decoder: %w", err)
	}
	return &zstdCompressor{encoder: enc, decoder: dec}, nil
}

func (z *zstdCompressor) Compress(c *world.Chunk) ([]byte, error) {
	return z.encoder.EncodeAll(c.Encode(), nil), nil
}

func (z *zstdCompressor) Decompress(payload []byte) (*world.Chunk, error) {
	raw, err := z.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка распаковки чанка: %w", err)
	}
	return world.Decode(raw)
}
