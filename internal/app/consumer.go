package app

import (
	"context"
	"errors"

	"github.com/taoyao-code/crsdk-bridge/internal/event"
	"github.com/taoyao-code/crsdk-bridge/internal/relay"
	"github.com/taoyao-code/crsdk-bridge/internal/session"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Consume 取出会话事件并写日志，直到通道关闭且取空（返回 nil）或 ctx 结束。
// ctx 结束时关闭接收端，之后的事件直接丢弃，不再堆积。
func Consume(ctx context.Context, s *session.Session, table *event.CodeTable, logger *zap.Logger) error {
	rx := s.Events()
	if rx == nil {
		return nil
	}
	log := logger.With(
		zap.String("session_id", s.ID),
		zap.String("camera", s.Camera.String()))

	for {
		ev, err := rx.Pull(ctx)
		if err != nil {
			if errors.Is(err, relay.ErrClosed) {
				log.Info("event stream closed")
				return nil
			}
			rx.Close()
			log.Warn("event consumer stopped", zap.Error(err), zap.Int("discarded", rx.Len()))
			return err
		}
		fields := append(event.Fields(ev), zap.String("desc", table.Describe(ev)))
		if ce := log.Check(eventLevel(ev), "camera event"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func eventLevel(ev event.Event) zapcore.Level {
	switch e := ev.(type) {
	case event.Error:
		return zapcore.ErrorLevel
	case event.Warning, event.WarningExt:
		return zapcore.WarnLevel
	case event.Disconnected:
		if e.Error != 0 {
			return zapcore.WarnLevel
		}
		return zapcore.InfoLevel
	case event.RemoteTransferData, event.RemoteTransferProgress, event.LvPropertyChanged:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}
