package mongodb

import (
    "crypto/tls"
    "fmt"

    "github.com/walletera/eventstore-tables/internal/domain/eventstore"

    "go.mongodb.org/mongo-driver/v2/mongo"
    "go.mongodb.org/mongo-driver/v2/mongo/options"
)

// NewClient creates a client for the table host in cfg. The account is used
// as the user name when an access key is configured.
func NewClient(cfg eventstore.Config) (*mongo.Client, error) {
    // Use the SetServerAPIOptions() method to set the Stable API version to 1
    serverAPI := options.ServerAPI(options.ServerAPIVersion1)
    opts := options.Client().
        ApplyURI(cfg.TableHost).
        SetServerAPIOptions(serverAPI).
        SetTimeout(cfg.Timeout).
        SetRetryReads(cfg.AutoReconnect).
        SetRetryWrites(cfg.AutoReconnect)

    if cfg.AccessKey != "" {
        opts.SetAuth(options.Credential{
            Username: cfg.Account,
            Password: cfg.AccessKey,
        })
    }
    if cfg.TLS {
        opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
    }

    client, err := mongo.Connect(opts)
    if err != nil {
        return nil, fmt.Errorf("error connecting to mongodb: %w", err)
    }
    return client, nil
}
