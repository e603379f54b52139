package logging

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pharmaclaims/substantia/internal/model"
)

// Init builds the process logger from config and installs it as the zap
// global, so components log via zap.L() without threading a logger around.
func Init(cfg model.LogConfig) error {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrapf(err, "parse log level %q", cfg.Level)
	}

	var zcfg zap.Config
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zcfg.Build()
	if err != nil {
		return eris.Wrap(err, "build logger")
	}

	zap.ReplaceGlobals(logger)
	return nil
}
