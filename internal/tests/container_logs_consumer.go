package tests

import (
    "fmt"
    "os"
    "path/filepath"
    "sync"

    "github.com/testcontainers/testcontainers-go"
)

const containerLogsDir = "containerlogs"

// ContainerLogConsumer appends the output of a test container to
// <dir>/<name>.log. Stderr lines are prefixed so both streams can share one file.
type ContainerLogConsumer struct {
    mu   sync.Mutex
    file *os.File
}

func NewContainerLogConsumer(containerName string) *ContainerLogConsumer {
    wd, err := os.Getwd()
    if err != nil {
        panic(err)
    }
    consumer, err := newContainerLogConsumerIn(filepath.Join(wd, containerLogsDir), containerName)
    if err != nil {
        panic(err)
    }
    return consumer
}

func newContainerLogConsumerIn(dir, containerName string) (*ContainerLogConsumer, error) {
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return nil, fmt.Errorf("failed creating container logs dir: %w", err)
    }
    file, err := os.Create(filepath.Join(dir, fmt.Sprintf("%s.log", containerName)))
    if err != nil {
        return nil, fmt.Errorf("failed creating %s log file: %w", containerName, err)
    }
    return &ContainerLogConsumer{file: file}, nil
}

func (c *ContainerLogConsumer) Accept(log testcontainers.Log) {
    c.mu.Lock()
    defer c.mu.Unlock()
    if c.file == nil {
        return
    }
    if log.LogType == testcontainers.StderrLog {
        if _, err := c.file.WriteString("[stderr] "); err != nil {
            panic(err)
        }
    }
    if _, err := c.file.Write(log.Content); err != nil {
        panic(err)
    }
}

// Close flushes the log file to disk. Lines accepted afterwards are dropped.
func (c *ContainerLogConsumer) Close() error {
    c.mu.Lock()
    defer c.mu.Unlock()
    if c.file == nil {
        return nil
    }
    err := c.file.Close()
    c.file = nil
    return err
}
