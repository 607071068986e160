// Package log provides a module-keyed structured logger used across every
// scanner, provider, and repository in this repository.
package log

import (
	"sync"

	"go.uber.org/zap"
)

// Module names, mirroring the module-constant idiom used to key loggers
// throughout the indexing pipeline.
const (
	Common          = "COMMON"
	Config          = "CONFIG"
	Storage         = "STORAGE"
	Locator         = "LOCATOR"
	NetworkScanner  = "NETWORK_SCANNER"
	BlockScanner    = "BLOCK_SCANNER"
	TxScanner       = "TX_SCANNER"
	SourceScanner   = "SOURCE_SCANNER"
	DateScanner     = "DATE_SCANNER"
	TokenScanner    = "TOKEN_SCANNER"
	Scheduler       = "SCHEDULER"
	ProviderEth     = "PROVIDER_ETHERSCAN"
	ProviderMoralis = "PROVIDER_MORALIS"
	ProviderLLM     = "PROVIDER_LLM"
	Analyzer        = "ANALYZER"
	EventBus        = "EVENTBUS"
	CmdIndexer      = "CMD_AIRDROPINDEXER"
)

var (
	baseOnce sync.Once
	base     *zap.SugaredLogger
)

func baseLogger() *zap.SugaredLogger {
	baseOnce.Do(func() {
		l, err := zap.NewProduction()
		if err != nil {
			l = zap.NewNop()
		}
		base = l.Sugar()
	})
	return base
}

// Logger is a structured, leveled logger scoped to one module name.
type Logger struct {
	module string
	s      *zap.SugaredLogger
}

// NewModuleLogger returns a Logger tagged with module, used as
// logger = log.NewModuleLogger(log.SourceScanner) at package scope.
func NewModuleLogger(module string) *Logger {
	return &Logger{module: module, s: baseLogger().With("module", module)}
}

func (l *Logger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.s.Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l *Logger) Fatal(msg string, kv ...interface{}) { l.s.Fatalw(msg, kv...) }

// SetGlobalLevel replaces the package's base zap logger with a development
// (debug) or production one. Loggers already returned by NewModuleLogger
// keep the backend they were created with.
func SetGlobalLevel(debug bool) {
	var l *zap.Logger
	var err error
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return
	}
	base = l.Sugar()
}
