package journal

import (
	"go.uber.org/zap"

	"github.com/omimic12/proxy6-automator/pkg"
)

// Zap mirrors entries into the operator log.
type Zap struct {
	logger *zap.Logger
}

func NewZap(logger *zap.Logger) *Zap {
	return &Zap{logger: logger}
}

func (z *Zap) Append(entry pkg.Entry) {
	fields := []zap.Field{zap.String("entry", entry.ID)}
	if entry.Detail != "" {
		fields = append(fields, zap.String("details", entry.Detail))
	}

	switch entry.Severity {
	case pkg.SeverityError:
		z.logger.Error(entry.Message, fields...)
	case pkg.SeverityWarning:
		z.logger.Warn(entry.Message, fields...)
	default:
		z.logger.Info(entry.Message, fields...)
	}
}
