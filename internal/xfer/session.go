// Package xfer wires the per-layer codecs (C1-C14) into the two
// end-to-end pipelines described by the external interface: a send
// side (compress -> fountain encode -> RS encode -> bit pack -> tile
// write) and a receive side (tile read -> RS decode -> align ->
// fountain decode -> decompress).
package xfer

import (
	"github.com/rs/zerolog"

	"github.com/sz3/libcimbar-sub001/internal/codec"
	"github.com/sz3/libcimbar-sub001/internal/config"
	"github.com/sz3/libcimbar-sub001/internal/hash"
	"github.com/sz3/libcimbar-sub001/internal/lattice"
	"github.com/sz3/libcimbar-sub001/internal/logging"
	"github.com/sz3/libcimbar-sub001/internal/rs"
)

// Session owns the immutable, once-built tables (tile catalog, lattice
// geometry, RS codec) shared by both the sender and receiver sides of
// one configuration. Build once, share across goroutines read-only,
// matching the "shared-resource policy" for immutable catalog/lattice
// state.
type Session struct {
	cfg config.Config
	cat *codec.Catalog
	pos *lattice.Positions
	rs  *rs.Codec
	log zerolog.Logger
}

// NewSession builds the shared tables for cfg, logging at Info level
// to stderr. Use NewSessionWithLogger to route logs elsewhere (tests,
// a GUI log pane, structured file output).
func NewSession(cfg config.Config) (*Session, error) {
	return NewSessionWithLogger(cfg, logging.Default())
}

// NewSessionWithLogger is NewSession with an explicit logger.
func NewSessionWithLogger(cfg config.Config, log zerolog.Logger) (*Session, error) {
	codecRS, err := rs.New(cfg.EccDataBytes(), cfg.EccBlockSize)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("total_cells", cfg.TotalCells()).
		Int("capacity_bytes", cfg.CapacityBytes()).
		Int("fountain_chunk_size", cfg.FountainChunkSize()).
		Msg("session initialized")
	return &Session{
		cfg: cfg,
		cat: codec.NewCatalog(cfg),
		pos: lattice.New(cfg),
		rs:  codecRS,
		log: log,
	}, nil
}

// Config returns the session's configuration.
func (s *Session) Config() config.Config { return s.cfg }

// decoderMode picks the fuzzy-hash search breadth used by the decoder;
// ALL is slower but more tolerant of perspective drift, matching the
// extractor's deskew confidence.
func decoderMode(needsSharpen bool) hash.Mode {
	if needsSharpen {
		return hash.ALL
	}
	return hash.FAST
}
