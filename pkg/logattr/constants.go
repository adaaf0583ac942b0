package logattr

import (
    "log/slog"
    "time"
)

func ServiceName(serviceName string) slog.Attr {
    return slog.String("service_name", serviceName)
}

func Component(component string) slog.Attr {
    return slog.String("component", component)
}

func Error(err string) slog.Attr {
    return slog.String("error", err)
}

func StreamId(streamId string) slog.Attr {
    return slog.String("stream_id", streamId)
}

func CommitId(commitId string) slog.Attr {
    return slog.String("commit_id", commitId)
}

func SnapshotId(snapshotId string) slog.Attr {
    return slog.String("snapshot_id", snapshotId)
}

func Revision(revision int64) slog.Attr {
    return slog.Int64("revision", revision)
}

func TableName(tableName string) slog.Attr {
    return slog.String("table_name", tableName)
}

func Count(count int) slog.Attr {
    return slog.Int("count", count)
}

func Retryable(retryable bool) slog.Attr {
    return slog.Bool("retryable", retryable)
}

func Duration(d time.Duration) slog.Attr {
    return slog.Duration("duration", d)
}

func Addr(addr string) slog.Attr {
    return slog.String("addr", addr)
}
