// Package pipeline orchestrates the modem's wire stages, grounded on
// revid.Revid's staged construction and Logger interface shape, and on
// soniclink/core.py's SonicLinkSender/SonicLinkReceiver stage ordering
// and option flags.
package pipeline

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/makalin/soniclink/compress"
	"github.com/makalin/soniclink/config"
	"github.com/makalin/soniclink/envelope"
	"github.com/makalin/soniclink/fec"
	"github.com/makalin/soniclink/internal/logx"
	"github.com/makalin/soniclink/ofdm"
)

// Logger is the interface the pipeline logs through; see internal/logx
// for the concrete zap-backed implementation.
type Logger = logx.Logger

type nopLogger struct{}

func (nopLogger) Log(logx.Level, string, ...interface{}) {}
func (nopLogger) SetLevel(logx.Level)                    {}
func (nopLogger) Debug(string, ...interface{})           {}
func (nopLogger) Info(string, ...interface{})            {}
func (nopLogger) Warning(string, ...interface{})         {}
func (nopLogger) Error(string, ...interface{})           {}
func (nopLogger) Fatal(string, ...interface{})           {}

// Pipeline runs the staged wire format spec.md §6 describes:
// audio <- markers(resample(CP+real(IDFT(64-QAM(bits(FEC(Envelope(Huffman(payload))))))))
// Each non-modem stage (compress, envelope, fec) is individually
// toggled by Config.
type Pipeline struct {
	cfg config.Config
	log Logger

	compressor *compress.Compressor
	fecCodec   *fec.Codec
	modulator  *ofdm.Modulator
	demod      *ofdm.Demodulator
}

// New builds a Pipeline from cfg, wiring the FEC codec to cfg's
// rs_n/rs_k and the OFDM modulator/demodulator to cfg's sample rate. A
// nil log uses a no-op logger.
func New(cfg config.Config, log Logger) *Pipeline {
	if log == nil {
		log = nopLogger{}
	}
	return &Pipeline{
		cfg:        cfg,
		log:        log,
		compressor: &compress.Compressor{},
		fecCodec:   fec.NewCodec(cfg.RSN, cfg.RSK),
		modulator:  ofdm.NewModulator(int(cfg.SampleRate)),
		demod:      ofdm.NewDemodulator(int(cfg.SampleRate)),
	}
}

// Result is the sum-type outcome of Receive: Bytes holds the recovered
// payload on success; Err holds a typed stage failure when a signal
// was found but could not be fully decoded. Both zero means the
// demodulator was handed nothing to work with (an empty recording) --
// this is "no signal", distinct from "signal, but undecodable".
type Result struct {
	Bytes []byte
	Err   error
}

// Send runs payload through Huffman compress, hybrid-envelope seal,
// Reed-Solomon encode, and OFDM modulate, in that order, returning the
// marker-delimited waveform ready for audio.Transmit. recipient is
// required when cfg.EncryptionEnabled is true.
func (p *Pipeline) Send(payload []byte, recipient *rsa.PublicKey) ([]float64, error) {
	data := payload

	if p.cfg.CompressionEnabled {
		compressed, err := p.compressor.Compress(data)
		if err != nil {
			return nil, &Error{Kind: CompressionError, Err: err}
		}
		data = compressed
		p.log.Debug("compressed payload", "ratio", p.compressor.Stats().Ratio)
	}

	if p.cfg.EncryptionEnabled {
		if recipient == nil {
			return nil, &Error{Kind: EnvelopeError, Err: fmt.Errorf("encryption enabled but no recipient public key given")}
		}
		sealed, err := envelope.Seal(data, recipient)
		if err != nil {
			return nil, &Error{Kind: EnvelopeError, Err: err}
		}
		data = sealed
	}

	if p.cfg.ReedSolomonEnabled {
		data = p.fecCodec.Encode(data)
	}

	return p.modulator.Modulate(data), nil
}

// Receive runs a captured waveform back through OFDM demodulate,
// Reed-Solomon decode, envelope open, and Huffman decompress, undoing
// Send's stages in reverse order. private is required when
// cfg.EncryptionEnabled is true.
func (p *Pipeline) Receive(waveform []float64, private *rsa.PrivateKey) Result {
	if len(waveform) == 0 {
		return Result{}
	}

	demRes, err := p.demod.Demodulate(waveform)
	if err != nil {
		return Result{Err: &Error{Kind: kindFromDemodError(err), Err: err}}
	}
	data := demRes.Data

	if p.cfg.ReedSolomonEnabled {
		decoded, err := p.fecCodec.Decode(data)
		if err != nil {
			var fecErr *fec.Error
			if errors.As(err, &fecErr) && fecErr.Kind == fec.Truncated {
				return Result{Err: &Error{Kind: FECUncorrectable, Err: err}}
			}
			// Uncorrectable is a best-effort warning per spec.md §4.3/§9.4:
			// decoded still carries the raw (possibly still-damaged)
			// bytes, so downstream stages get a chance to salvage them.
			p.log.Warning("fec: uncorrectable block, continuing with best-effort data", "error", err.Error())
		}
		data = decoded
	}

	if p.cfg.EncryptionEnabled {
		if private == nil {
			return Result{Err: &Error{Kind: EnvelopeError, Err: fmt.Errorf("encryption enabled but no private key given")}}
		}
		opened, err := envelope.Open(data, private)
		if err != nil {
			return Result{Err: &Error{Kind: EnvelopeError, Err: err}}
		}
		data = opened
	}

	if p.cfg.CompressionEnabled {
		decompressed, err := p.compressor.Decompress(data)
		if err != nil {
			return Result{Err: &Error{Kind: CompressionError, Err: err}}
		}
		data = decompressed
	}

	return Result{Bytes: data}
}

func kindFromDemodError(err error) Kind {
	var oe *ofdm.Error
	if errors.As(err, &oe) {
		switch oe.Kind {
		case ofdm.NoFrame:
			return NoFrame
		case ofdm.MalformedBits:
			return DemodError
		}
	}
	return DemodError
}
